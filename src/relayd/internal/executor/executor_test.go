package executor

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRun(t *testing.T) {
	t.Run("captures both streams", func(t *testing.T) {
		executor := NewExecutor(WithExecFunc(func(cmd *exec.Cmd) error {
			cmd.Stdout.Write([]byte("out"))
			cmd.Stderr.Write([]byte("err"))
			return nil
		}))

		stdout, stderr, exitCode, err := executor.Run(exec.Command("some-binary", "--flag", "prompt"))
		assert.NoError(t, err)
		assert.Equal(t, "out", stdout)
		assert.Equal(t, "err", stderr)
		assert.Equal(t, -1, exitCode)
	})

	t.Run("propagates exec error", func(t *testing.T) {
		wantErr := errors.New("exec failed")
		executor := NewExecutor(WithExecFunc(func(cmd *exec.Cmd) error {
			return wantErr
		}))

		_, _, _, err := executor.Run(exec.Command("some-binary"))
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("with logger", func(t *testing.T) {
		executor := NewExecutor(
			WithLogger(zap.NewNop().Sugar()),
			WithExecFunc(func(cmd *exec.Cmd) error { return nil }),
		)

		_, _, _, err := executor.Run(exec.Command("some-binary", "--flag", "a long user prompt"))
		assert.NoError(t, err)
	})

	t.Run("no arguments beyond the binary", func(t *testing.T) {
		executor := NewExecutor(WithExecFunc(func(cmd *exec.Cmd) error { return nil }))

		_, _, _, err := executor.Run(exec.Command("some-binary"))
		assert.NoError(t, err)
	})
}
