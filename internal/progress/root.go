package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
)

// ErrCancelled is returned when the user quits before all steps finished.
var ErrCancelled = errors.New("cancelled")

// Step is one named unit of work, e.g. "Downloading 1.2.0".
type Step struct {
	Title string
	Run   func(ctx context.Context) error
}

type stepStartedMsg struct{ index int }
type stepFinishedMsg struct{ index int }
type stepFailedMsg struct {
	index int
	err   error
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// inflight tracks running steps so Run can wait for them after the
// program exited. Once closed, no further step may begin.
type inflight struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (f *inflight) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.wg.Add(1)
	return true
}

func (f *inflight) wait() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.wg.Wait()
}

type model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	inflight  *inflight
	spinner   spinner.Model
	steps     []Step
	current   int
	done      []bool
	running   bool
	quitting  bool
	cancelled bool
	err       error
}

func initialModel(ctx context.Context, cancel context.CancelFunc, steps []Step) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{
		ctx:      ctx,
		cancel:   cancel,
		inflight: &inflight{},
		spinner:  s,
		steps:    steps,
		done:     make([]bool, len(steps)),
	}
}

func (m model) startStep(i int) tea.Cmd {
	return func() tea.Msg {
		return stepStartedMsg{index: i}
	}
}

func (m model) performStep(i int) tea.Cmd {
	return func() tea.Msg {
		if !m.inflight.begin() {
			return stepFailedMsg{index: i, err: ErrCancelled}
		}
		defer m.inflight.wg.Done()
		if err := m.steps[i].Run(m.ctx); err != nil {
			return stepFailedMsg{index: i, err: err}
		}
		return stepFinishedMsg{index: i}
	}
}

func (m model) Init() tea.Cmd {
	if len(m.steps) == 0 {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.startStep(0))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			// A running step finishes first; its result ends the program.
			if m.running {
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		default:
			return m, nil
		}

	case stepStartedMsg:
		if m.cancelled {
			m.quitting = true
			return m, tea.Quit
		}
		m.current = msg.index
		m.running = true
		return m, m.performStep(msg.index)

	case stepFinishedMsg:
		m.running = false
		m.done[msg.index] = true
		if msg.index+1 < len(m.steps) && !m.cancelled {
			return m, m.startStep(msg.index + 1)
		}
		m.quitting = true
		return m, tea.Quit

	case stepFailedMsg:
		m.running = false
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	default:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("\n")
	for i, step := range m.steps {
		switch {
		case m.done[i]:
			b.WriteString(doneStyle.Render("  ✓ " + step.Title))
		case i == m.current && m.err != nil:
			b.WriteString(failedStyle.Render("  ✗ " + step.Title + ": " + m.err.Error()))
		case i == m.current && m.running && m.cancelled:
			fmt.Fprintf(&b, "  %s %s (stopping after this step)", m.spinner.View(), step.Title)
		case i == m.current && !m.quitting:
			fmt.Fprintf(&b, "  %s %s", m.spinner.View(), step.Title)
		default:
			b.WriteString(pendingStyle.Render("    " + step.Title))
		}
		b.WriteString("\n")
	}
	if m.quitting {
		b.WriteString("\n")
	}
	return b.String()
}

// newProgram is swapped in tests to run without a terminal.
var newProgram = func(m tea.Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, opts...)
}

// Run executes steps in order and stops at the first failure.
// With interactive set the steps are shown with a spinner on out;
// otherwise each step is logged and its title written to out as it starts.
//
// Quitting the interactive view cancels the context handed to the steps
// but Run only returns once the running step has returned.
func Run(ctx context.Context, out io.Writer, steps []Step, interactive bool) error {
	if !interactive {
		return runPlain(ctx, out, steps)
	}

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialModel(stepCtx, cancel, steps)
	p := newProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	final, err := p.Run()
	// The program is gone once ctx is done; the step it started is not.
	cancel()
	m.inflight.wait()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "progress view")
	}
	fm, ok := final.(model)
	if !ok {
		return nil
	}
	if fm.cancelled && (fm.err == nil || errors.Is(fm.err, context.Canceled)) {
		return ErrCancelled
	}
	if fm.err != nil {
		return fm.err
	}
	if err != nil {
		return ctx.Err()
	}
	return nil
}

func runPlain(ctx context.Context, out io.Writer, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		slog.Debug("running step", "step", step.Title)
		if out != nil {
			fmt.Fprintln(out, step.Title)
		}
		if err := step.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}
