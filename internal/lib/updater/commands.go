package updater

import (
	"context"

	"github.com/mistweaverco/selfupdate/internal/lib/shell_out"
)

// CommandRunner runs the configured pre and post update command lines.
type CommandRunner interface {
	Run(ctx context.Context, line string, dir string, env []string) (int, string, error)
}

// ShellRunner runs command lines through the platform shell.
type ShellRunner struct{}

func (ShellRunner) Run(ctx context.Context, line string, dir string, env []string) (int, string, error) {
	return shell_out.RunCommandLine(ctx, line, dir, env)
}

// MockCommandRunner records command lines instead of running them.
type MockCommandRunner struct {
	RunFunc func(ctx context.Context, line string, dir string, env []string) (int, string, error)
	Lines   []string
	Env     [][]string
}

func (m *MockCommandRunner) Run(ctx context.Context, line string, dir string, env []string) (int, string, error) {
	m.Lines = append(m.Lines, line)
	m.Env = append(m.Env, env)
	if m.RunFunc != nil {
		return m.RunFunc(ctx, line, dir, env)
	}
	return 0, "", nil
}
