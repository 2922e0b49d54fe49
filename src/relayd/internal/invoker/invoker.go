package invoker

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tally "github.com/uber-go/tally/v4"
	"github.com/uberzzr/claude-relay/src/relayd/entity"
	relayerrors "github.com/uberzzr/claude-relay/src/relayd/internal/errors"
	"github.com/uberzzr/claude-relay/src/relayd/internal/executor"
	"github.com/uberzzr/claude-relay/src/relayd/internal/sanitize"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "invoker"

	_defaultBinary  = "claude"
	_defaultTimeout = 5 * time.Minute

	// Grace period between the kill triggered by context expiry and
	// abandoning the output-drain goroutines.
	_waitDelay = 10 * time.Second

	_excerptLimit = 500

	_envAPIKey = "ANTHROPIC_API_KEY"

	_flagPrint           = "--print"
	_flagSkipPermissions = "--dangerously-skip-permissions"
	_flagSessionID       = "--session-id"
	_flagResume          = "--resume"
	_flagModel           = "--model"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Request describes one assistant invocation.
type Request struct {
	// SessionID is the opaque resumable handle for the conversation.
	SessionID string
	// Resume selects continuation of an existing session rather than
	// first use of a fresh handle.
	Resume bool
	// Prompt is the user's text, passed as a single opaque argument.
	Prompt string
	// Dir is the working directory the process runs in.
	Dir string
	// Model pins a specific model. Empty lets the assistant choose.
	Model string
}

// Invoker runs one non-interactive assistant invocation per request and
// classifies the outcome.
type Invoker interface {
	// Invoke runs the assistant and returns its sanitized stdout, or one
	// of SpawnError, ExternalProcessError, TimeoutError.
	Invoke(ctx context.Context, req Request) (string, error)
}

// Params defines the dependencies of the invoker.
type Params struct {
	fx.In

	Logger   *zap.SugaredLogger
	Config   config.Provider
	Executor executor.Executor
	Stats    tally.Scope
}

type invokerImpl struct {
	logger   *zap.SugaredLogger
	executor executor.Executor
	binary   string
	apiKey   string
	timeout  time.Duration

	latency    tally.Timer
	successes  tally.Counter
	failures   tally.Counter
	timeouts   tally.Counter
	spawnFails tally.Counter
}

// New creates an Invoker from the "relay" configuration block.
func New(p Params) (Invoker, error) {
	var cfg entity.RelayConfig
	if err := p.Config.Get(entity.RelayConfigKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting configuration for %q: %w", entity.RelayConfigKey, err)
	}

	if cfg.Binary == "" {
		cfg.Binary = _defaultBinary
	}
	timeout := time.Duration(cfg.InvocationTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	scope := p.Stats.SubScope(_nameKey)
	return &invokerImpl{
		logger:     p.Logger.With("component", _nameKey),
		executor:   p.Executor,
		binary:     cfg.Binary,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		latency:    scope.Timer("latency"),
		successes:  scope.Counter("successes"),
		failures:   scope.Counter("failures"),
		timeouts:   scope.Counter("timeouts"),
		spawnFails: scope.Counter("spawn_failures"),
	}, nil
}

func (i *invokerImpl) Invoke(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	// Cancelling on return stops the timer after normal completion so a
	// late expiry can never fire against a reused pid.
	defer cancel()

	cmd := exec.CommandContext(ctx, i.binary, buildArgs(req)...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = _waitDelay
	if i.apiKey != "" {
		// Inject the credential explicitly rather than relying on the
		// parent's ambient environment.
		cmd.Env = append(os.Environ(), _envAPIKey+"="+i.apiKey)
	}

	stopwatch := i.latency.Start()
	stdout, stderr, exitCode, err := i.executor.Run(cmd)
	stopwatch.Stop()

	if err == nil {
		i.successes.Inc(1)
		return sanitize.Output(stdout), nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		i.timeouts.Inc(1)
		i.logger.Warnw("invocation timed out", "session", req.SessionID, "timeout", i.timeout)
		return "", &relayerrors.TimeoutError{Timeout: i.timeout}
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		i.failures.Inc(1)
		i.logger.Warnw("assistant exited non-zero", "session", req.SessionID, "exitCode", exitCode)
		return "", &relayerrors.ExternalProcessError{
			ExitCode: exitCode,
			Excerpt:  excerpt(stderr, stdout),
		}
	}

	i.spawnFails.Inc(1)
	i.logger.Errorw("assistant failed to start", "binary", i.binary, "error", err)
	return "", &relayerrors.SpawnError{Err: err}
}

// buildArgs constructs the argument vector. No shell is involved, so the
// prompt needs no quoting and cannot be interpreted as shell syntax.
func buildArgs(req Request) []string {
	args := []string{_flagPrint, _flagSkipPermissions}
	if req.Resume {
		args = append(args, _flagResume, req.SessionID)
	} else {
		args = append(args, _flagSessionID, req.SessionID)
	}
	if req.Model != "" {
		args = append(args, _flagModel, req.Model)
	}
	return append(args, req.Prompt)
}

// excerpt returns a bounded diagnostic tail from stderr, falling back to
// stdout when stderr is empty.
func excerpt(stderr, stdout string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		s = strings.TrimSpace(stdout)
	}
	runes := []rune(s)
	if len(runes) > _excerptLimit {
		runes = runes[len(runes)-_excerptLimit:]
	}
	return string(runes)
}
