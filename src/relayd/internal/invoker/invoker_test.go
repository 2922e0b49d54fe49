package invoker

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	relayerrors "github.com/uberzzr/claude-relay/src/relayd/internal/errors"
	"github.com/uberzzr/claude-relay/src/relayd/internal/executor"
	"go.uber.org/config"
	"go.uber.org/zap"
)

func newTestInvoker(t *testing.T, exec executor.Executor, timeout time.Duration) *invokerImpl {
	t.Helper()
	scope := tally.NewTestScope("testing", make(map[string]string, 0))
	return &invokerImpl{
		logger:     zap.NewNop().Sugar(),
		executor:   exec,
		binary:     "claude",
		timeout:    timeout,
		latency:    scope.Timer("latency"),
		successes:  scope.Counter("successes"),
		failures:   scope.Counter("failures"),
		timeouts:   scope.Counter("timeouts"),
		spawnFails: scope.Counter("spawn_failures"),
	}
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]interface{}{
			"relay": map[string]interface{}{},
		})
		require.NoError(t, err)

		i, err := New(Params{
			Logger:   zap.NewNop().Sugar(),
			Config:   provider,
			Executor: executor.NewExecutor(),
			Stats:    tally.NewTestScope("testing", make(map[string]string, 0)),
		})
		require.NoError(t, err)

		impl := i.(*invokerImpl)
		assert.Equal(t, "claude", impl.binary)
		assert.Equal(t, 5*time.Minute, impl.timeout)
	})

	t.Run("configured", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]interface{}{
			"relay": map[string]interface{}{
				"binary":                   "/usr/local/bin/claude",
				"invocationTimeoutSeconds": 60,
			},
		})
		require.NoError(t, err)

		i, err := New(Params{
			Logger:   zap.NewNop().Sugar(),
			Config:   provider,
			Executor: executor.NewExecutor(),
			Stats:    tally.NewTestScope("testing", make(map[string]string, 0)),
		})
		require.NoError(t, err)

		impl := i.(*invokerImpl)
		assert.Equal(t, "/usr/local/bin/claude", impl.binary)
		assert.Equal(t, time.Minute, impl.timeout)
	})
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns sanitized stdout", func(t *testing.T) {
		var gotArgs []string
		var gotDir string
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			gotArgs = cmd.Args
			gotDir = cmd.Dir
			cmd.Stdout.Write([]byte("\x1b[31m⠙\nanswer\x1b[0m\n"))
			return nil
		}))
		i := newTestInvoker(t, fake, time.Minute)

		out, err := i.Invoke(ctx, Request{
			SessionID: "handle-1",
			Prompt:    "do the thing",
			Dir:       "/repo",
		})
		assert.NoError(t, err)
		assert.Equal(t, "answer", out)
		assert.Equal(t, "/repo", gotDir)
		assert.Equal(t, []string{"claude", "--print", "--dangerously-skip-permissions", "--session-id", "handle-1", "do the thing"}, gotArgs)
	})

	t.Run("non-zero exit becomes external process error", func(t *testing.T) {
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			cmd.Stderr.Write([]byte("boom\n"))
			// Run a real failing process to obtain a genuine ExitError.
			return exec.Command("sh", "-c", "exit 3").Run()
		}))
		i := newTestInvoker(t, fake, time.Minute)

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		var procErr *relayerrors.ExternalProcessError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "boom", procErr.Excerpt)
	})

	t.Run("excerpt falls back to stdout", func(t *testing.T) {
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			cmd.Stdout.Write([]byte("only stdout said anything\n"))
			return exec.Command("sh", "-c", "exit 1").Run()
		}))
		i := newTestInvoker(t, fake, time.Minute)

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		var procErr *relayerrors.ExternalProcessError
		require.ErrorAs(t, err, &procErr)
		assert.Equal(t, "only stdout said anything", procErr.Excerpt)
	})

	t.Run("timeout becomes timeout error", func(t *testing.T) {
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			time.Sleep(200 * time.Millisecond)
			return errors.New("killed")
		}))
		i := newTestInvoker(t, fake, 50*time.Millisecond)

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		var timeoutErr *relayerrors.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	})

	t.Run("startup failure becomes spawn error", func(t *testing.T) {
		wantErr := errors.New("no such binary")
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			return wantErr
		}))
		i := newTestInvoker(t, fake, time.Minute)

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		var spawnErr *relayerrors.SpawnError
		require.ErrorAs(t, err, &spawnErr)
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("api key injected into environment", func(t *testing.T) {
		var gotEnv []string
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			gotEnv = cmd.Env
			return nil
		}))
		i := newTestInvoker(t, fake, time.Minute)
		i.apiKey = "sk-test"

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		assert.NoError(t, err)
		assert.Contains(t, gotEnv, "ANTHROPIC_API_KEY=sk-test")
	})

	t.Run("without api key the parent environment is inherited", func(t *testing.T) {
		var gotEnv []string
		fake := executor.NewExecutor(executor.WithExecFunc(func(cmd *exec.Cmd) error {
			gotEnv = cmd.Env
			return nil
		}))
		i := newTestInvoker(t, fake, time.Minute)

		_, err := i.Invoke(ctx, Request{SessionID: "handle-1", Prompt: "p"})
		assert.NoError(t, err)
		assert.Nil(t, gotEnv)
	})
}

func TestBuildArgs(t *testing.T) {
	t.Run("first use", func(t *testing.T) {
		args := buildArgs(Request{SessionID: "h", Prompt: "hello"})
		assert.Equal(t, []string{"--print", "--dangerously-skip-permissions", "--session-id", "h", "hello"}, args)
	})

	t.Run("resume", func(t *testing.T) {
		args := buildArgs(Request{SessionID: "h", Resume: true, Prompt: "hello"})
		assert.Equal(t, []string{"--print", "--dangerously-skip-permissions", "--resume", "h", "hello"}, args)
	})

	t.Run("model pinned", func(t *testing.T) {
		args := buildArgs(Request{SessionID: "h", Prompt: "hello", Model: "opus"})
		assert.Equal(t, []string{"--print", "--dangerously-skip-permissions", "--session-id", "h", "--model", "opus", "hello"}, args)
	})

	t.Run("prompt is always last and never split", func(t *testing.T) {
		prompt := "run `rm -rf /tmp/x`; then echo \"$HOME\""
		args := buildArgs(Request{SessionID: "h", Resume: true, Prompt: prompt})
		assert.Equal(t, prompt, args[len(args)-1])
	})
}

func TestExcerpt(t *testing.T) {
	t.Run("stderr preferred", func(t *testing.T) {
		assert.Equal(t, "err", excerpt(" err \n", "out"))
	})

	t.Run("stdout fallback", func(t *testing.T) {
		assert.Equal(t, "out", excerpt("  \n", " out \n"))
	})

	t.Run("bounded to the tail", func(t *testing.T) {
		long := strings.Repeat("a", 600) + "tail"
		got := excerpt(long, "")
		assert.Len(t, []rune(got), 500)
		assert.True(t, strings.HasSuffix(got, "tail"))
	})

	t.Run("multibyte safe", func(t *testing.T) {
		long := strings.Repeat("ü", 600)
		got := excerpt(long, "")
		assert.Len(t, []rune(got), 500)
	})
}
