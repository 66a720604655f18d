// Package session holds the state of one explorer session: the API client,
// the searched source summary, loaded series and the pending load request.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wexinc/sourcecheck/internal/ceic"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// LoadRequest asks for every series of a source to be loaded.
type LoadRequest struct {
	SourceID string
	Count    int
}

// Manager is the session state. All methods are safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	id              string
	client          *ceic.Client
	summaries       []summary.Summary
	details         []*ceic.SeriesMetadata
	detailsSourceID string
	filter          string
	pending         *LoadRequest
}

// New creates an empty, logged-out session.
func New() *Manager {
	return &Manager{id: uuid.NewString()}
}

// ID identifies the session in logs.
func (m *Manager) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

// SetClient stores an authenticated client and marks the session logged in.
func (m *Manager) SetClient(c *ceic.Client) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

// Client returns the API client, or nil when logged out.
func (m *Manager) Client() *ceic.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// LoggedIn reports whether a client is set.
func (m *Manager) LoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Clear logs out: the client and all search state are dropped and the
// session gets a fresh ID.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
	m.clearSearchLocked()
	m.id = uuid.NewString()
}

// ClearSearchResults drops the summary and loaded series.
func (m *Manager) ClearSearchResults() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearSearchLocked()
}

func (m *Manager) clearSearchLocked() {
	m.summaries = nil
	m.clearDetailsLocked()
}

// ClearSeriesDetails drops loaded series and their filter.
func (m *Manager) ClearSeriesDetails() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearDetailsLocked()
}

func (m *Manager) clearDetailsLocked() {
	m.details = nil
	m.detailsSourceID = ""
	m.filter = ""
}

// SetSummary stores the summary rows and drops any pending load request.
func (m *Manager) SetSummary(rows []summary.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append([]summary.Summary(nil), rows...)
	m.pending = nil
}

// Summary returns a copy of the summary rows.
func (m *Manager) Summary() []summary.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]summary.Summary(nil), m.summaries...)
}

// SetSeriesDetails stores the loaded series of sourceID. The filter keyword
// and any pending load request are cleared.
func (m *Manager) SetSeriesDetails(data []*ceic.SeriesMetadata, sourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = data
	m.detailsSourceID = sourceID
	m.filter = ""
	m.pending = nil
}

// SeriesDetails returns the loaded series. The slice must not be modified.
func (m *Manager) SeriesDetails() []*ceic.SeriesMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.details
}

// DetailsSourceID returns the source the loaded series belong to.
func (m *Manager) DetailsSourceID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detailsSourceID
}

// DetailsLoadedFor reports whether series are loaded for sourceID.
func (m *Manager) DetailsLoadedFor(sourceID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.details != nil && m.detailsSourceID == sourceID
}

// SetFilter sets the series filter keyword.
func (m *Manager) SetFilter(keyword string) {
	m.mu.Lock()
	m.filter = keyword
	m.mu.Unlock()
}

// Filter returns the series filter keyword.
func (m *Manager) Filter() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// FilteredDetails returns the loaded series matching the filter keyword.
func (m *Manager) FilteredDetails() []*ceic.SeriesMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return summary.Filter(m.details, m.filter)
}

// RequestLoad records a request to load all series of sourceID.
func (m *Manager) RequestLoad(sourceID string, count int) {
	m.mu.Lock()
	m.pending = &LoadRequest{SourceID: sourceID, Count: count}
	m.mu.Unlock()
}

// PendingLoad returns the pending load request, if any.
func (m *Manager) PendingLoad() (LoadRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pending == nil {
		return LoadRequest{}, false
	}
	return *m.pending, true
}

// ClearLoadRequest drops the pending load request.
func (m *Manager) ClearLoadRequest() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// NeedsConfirmation reports whether the pending request is larger than threshold.
func (m *Manager) NeedsConfirmation(threshold int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending != nil && m.pending.Count > threshold
}
