package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/source"
)

// Sender delivers messages into a running program from other goroutines.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgressForwarder turns load progress callbacks into LoadProgressMsg
// values. Reports that would not move the bar are dropped.
type ProgressForwarder struct {
	sender Sender

	mu   sync.Mutex
	gen  uint64
	last int
}

// NewProgressForwarder creates a forwarder sending to s. A nil sender
// discards everything.
func NewProgressForwarder(s Sender) *ProgressForwarder {
	return &ProgressForwarder{sender: s, last: -1}
}

// Report implements ceic.ProgressFunc.
func (f *ProgressForwarder) Report(done, total int) {
	f.forward(LoadProgressMsg{Done: done, Total: total})
}

func (f *ProgressForwarder) forward(p LoadProgressMsg) {
	if f.sender == nil {
		return
	}
	f.mu.Lock()
	if p.Gen != f.gen {
		f.gen, f.last = p.Gen, -1
	}
	if p.Done == f.last && p.Done != p.Total {
		f.mu.Unlock()
		return
	}
	f.last = p.Done
	f.mu.Unlock()
	f.sender.Send(p)
}

// Send implements the Model sender signature.
func (f *ProgressForwarder) Send(msg tea.Msg) {
	if p, ok := msg.(LoadProgressMsg); ok {
		f.forward(p)
		return
	}
	if f.sender != nil {
		f.sender.Send(msg)
	}
}

// Runner runs the TUI program together with the optional sources watcher.
type Runner struct {
	model   *Model
	program *tea.Program
	watch   bool
}

// NewRunner creates a Runner. When watch is true the sources file of
// opts.Catalog is watched and the list reloads after every change.
func NewRunner(opts Options, watch bool, progOpts ...tea.ProgramOption) *Runner {
	model := New(opts)
	if len(progOpts) == 0 {
		progOpts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	if opts.Context != nil {
		progOpts = append(progOpts, tea.WithContext(opts.Context))
	}
	program := tea.NewProgram(model, progOpts...)
	model.SetSender(NewProgressForwarder(program).Send)

	return &Runner{
		model:   model,
		program: program,
		watch:   watch && opts.Cache != nil && model.sourcesPath != "",
	}
}

// Run blocks until the program exits.
func (r *Runner) Run(ctx context.Context) error {
	if r.watch {
		w, err := source.NewWatcher(r.model.sourcesPath, r.model.cache, func(path string) {
			r.program.Send(SourcesChangedMsg{Path: path})
		})
		if err != nil {
			logging.Warn("sources watcher unavailable", "error", err)
		} else {
			if err := w.Start(ctx); err != nil {
				logging.Warn("sources watcher failed to start", "error", err)
			}
			defer w.Close()
		}
	}

	logging.Info("tui started", "session_id", r.model.explorer.Session().ID())
	_, err := r.program.Run()
	logging.Info("tui stopped")
	if apperrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Program returns the underlying tea.Program.
func (r *Runner) Program() *tea.Program {
	return r.program
}

// Model returns the TUI model.
func (r *Runner) Model() *Model {
	return r.model
}
