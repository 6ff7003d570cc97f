package shell_out

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell syntax")
	}
}

func TestRunCommandLine(t *testing.T) {
	skipOnWindows(t)

	t.Run("captures output", func(t *testing.T) {
		code, output, err := RunCommandLine(context.Background(), "echo hello world", "", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Contains(t, output, "hello world")
	})

	t.Run("exit code and output of a failing command", func(t *testing.T) {
		code, output, err := RunCommandLine(context.Background(), "echo oops; exit 2", "", nil)
		assert.Error(t, err)
		assert.Equal(t, 2, code)
		assert.Contains(t, output, "oops")
	})

	t.Run("runs inside dir", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := RunCommandLine(context.Background(), "touch marker", dir, nil)
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "marker"))
		assert.NoError(t, err)
	})

	t.Run("adds env", func(t *testing.T) {
		_, output, err := RunCommandLine(context.Background(), "echo $SELFUPDATE_VERSION", "", []string{"SELFUPDATE_VERSION=1.2.0"})
		require.NoError(t, err)
		assert.Contains(t, output, "1.2.0")
	})

	t.Run("empty line", func(t *testing.T) {
		code, _, err := RunCommandLine(context.Background(), "   ", "", nil)
		assert.ErrorIs(t, err, ErrEmptyCommand)
		assert.Equal(t, -1, code)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, _, err := RunCommandLine(ctx, "sleep 5", "", nil)
		assert.Error(t, err)
	})
}

func TestHasCommand(t *testing.T) {
	skipOnWindows(t)

	t.Run("has command with echo", func(t *testing.T) {
		assert.True(t, HasCommand("echo", []string{}, nil))
	})

	t.Run("has command returns false on exit error", func(t *testing.T) {
		assert.False(t, HasCommand("false", []string{}, nil))
	})

	t.Run("has command with custom env and args", func(t *testing.T) {
		assert.True(t, HasCommand("sh", []string{"-c", "test \"$CUSTOM_VAR\" = test"}, []string{"CUSTOM_VAR=test"}))
	})

	t.Run("has command with nonexistent command", func(t *testing.T) {
		assert.False(t, HasCommand("nonexistentcommand12345", []string{}, nil))
	})
}

func TestShellFor(t *testing.T) {
	shell, flag := shellFor("windows")
	assert.Equal(t, "cmd", shell)
	assert.Equal(t, "/C", flag)

	shell, flag = shellFor("linux")
	assert.Equal(t, "sh", shell)
	assert.Equal(t, "-c", flag)
}

func TestHasShell(t *testing.T) {
	skipOnWindows(t)
	assert.True(t, HasShell())
}
