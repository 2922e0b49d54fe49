package executor

import (
	"bytes"
	"os/exec"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a module to inject using fx.
var Module = fx.Options(
	fx.Provide(func(logger *zap.SugaredLogger) Executor {
		return NewExecutor(
			WithLogger(logger),
			WithExecFunc(func(cmd *exec.Cmd) error { return cmd.Run() }),
		)
	}),
)

// Executor wraps the execution of "os/exec".Cmd's to allow adding logs to
// each exec and makes it easier to test.
type Executor interface {
	// Run - logs and executes the Cmd specified, overriding its
	// Stdout/Stderr to return their full content. Both streams buffer
	// concurrently with process execution, so large outputs cannot stall
	// the subprocess on pipe backpressure.
	Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error)
}

// executorImp implements Executor.
type executorImp struct {
	Logger *zap.SugaredLogger
	// ExecFunc may be replaced to use executorImp in tests.
	ExecFunc func(e *exec.Cmd) error
}

// Option defines options to customize executorImp's behavior.
type Option func(*executorImp)

// WithLogger overrides the default noop logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(executor *executorImp) {
		executor.Logger = logger
	}
}

// WithExecFunc provides customized exec behavior for executorImp.
func WithExecFunc(execFunc func(e *exec.Cmd) error) Option {
	return func(executor *executorImp) {
		executor.ExecFunc = execFunc
	}
}

// NewExecutor creates a new executorImp with the given options applied over
// a noop logger and a default exec function.
func NewExecutor(opts ...Option) Executor {
	executor := &executorImp{
		Logger:   zap.NewNop().Sugar(),
		ExecFunc: func(cmd *exec.Cmd) error { return cmd.Run() },
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Run - logs the Path/Dir/Args and calls ExecFunc.
func (l *executorImp) Run(cmd *exec.Cmd) (stdout string, stderr string, exitCode int, err error) {
	l.logCommand(cmd)

	var stdoutB, stderrB bytes.Buffer
	cmd.Stdout = &stdoutB
	cmd.Stderr = &stderrB
	err = l.ExecFunc(cmd)

	exitCode = -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return stdoutB.String(), stderrB.String(), exitCode, err
}

// Logs the command specified: Path, Dir and flag arguments. The final
// argument is the user's prompt and is logged by length only.
func (l *executorImp) logCommand(cmd *exec.Cmd) {
	flags := cmd.Args[1:] // First arg is always the command itself
	promptLen := 0
	if len(flags) > 0 {
		promptLen = len(flags[len(flags)-1])
		flags = flags[:len(flags)-1]
	}

	l.Logger.Infow("Exec",
		"Path", cmd.Path,
		"Dir", cmd.Dir,
		"Args", flags,
		"PromptLen", promptLen,
	)
}
