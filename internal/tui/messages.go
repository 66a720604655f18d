package tui

import (
	"time"

	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// TickMsg is sent every second to refresh the elapsed time.
type TickMsg struct {
	Time time.Time
}

// LoginResultMsg reports the outcome of a login attempt.
type LoginResultMsg struct {
	Username string
	Err      error
}

// SearchResultMsg reports the outcome of a source search.
type SearchResultMsg struct {
	Source  source.Source
	Summary summary.Summary
	Err     error
}

// LoadProgressMsg reports how many series have been fetched so far.
// It is sent from worker goroutines through Program.Send.
type LoadProgressMsg struct {
	Gen   uint64
	Done  int
	Total int
}

// LoadDoneMsg reports the end of a full load. Result is nil when there was
// nothing to load. Gen identifies the load; messages from a load that was
// superseded or abandoned by a logout are ignored.
type LoadDoneMsg struct {
	Gen      uint64
	SourceID string
	Result   *explorer.LoadResult
	Err      error
}

// SourcesChangedMsg is sent when the sources file changes on disk.
type SourcesChangedMsg struct {
	Path string
}

// ErrorMsg displays an error on the message line.
type ErrorMsg struct {
	Error string
}

// QuitMsg asks the program to exit.
type QuitMsg struct{}
