package shell_out

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// waitDelay bounds how long output pipes are drained after ctx kills a command.
const waitDelay = 2 * time.Second

// ErrEmptyCommand is returned for blank command lines.
var ErrEmptyCommand = errors.New("empty command line")

// shellFor returns the interpreter and flag used to run a command line.
func shellFor(goos string) (string, string) {
	if goos == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

func command(ctx context.Context, name string, args []string, dir string, env []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode()
	}
	return -1
}

// RunCommandLine runs line through the platform shell inside dir and
// returns its exit code and combined output. env entries are added to
// the process environment. Cancelling ctx kills the command.
func RunCommandLine(ctx context.Context, line string, dir string, env []string) (int, string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return -1, "", ErrEmptyCommand
	}
	shell, flag := shellFor(runtime.GOOS)
	output, err := command(ctx, shell, []string{flag, line}, dir, env).CombinedOutput()
	if err != nil {
		return exitCode(err), string(output), errors.Wrapf(err, "run %q", line)
	}
	return 0, string(output), nil
}

// HasCommand reports whether command runs and exits with status 0.
func HasCommand(command string, args []string, env []string) bool {
	cmd := exec.Command(command, args...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	return exitCode(cmd.Run()) == 0
}

// HasShell reports whether the shell used by RunCommandLine starts
// and runs a trivial command line.
func HasShell() bool {
	shell, flag := shellFor(runtime.GOOS)
	return HasCommand(shell, []string{flag, "exit 0"}, nil)
}
