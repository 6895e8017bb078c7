package conversation

import (
	"fmt"
	"strings"
)

// MaxRenderedResults caps how many previous result rows appear in a rendered prompt.
// The snapshot itself keeps every row.
const MaxRenderedResults = 2

// Manager owns one conversation: a bounded window of turns and a single
// mutable context snapshot. It is not safe for concurrent use.
type Manager struct {
	turns    []Turn
	maxTurns int
	snapshot Snapshot
}

// NewManager creates a Manager keeping at most maxTurns round trips.
// A non-positive maxTurns falls back to DefaultMaxTurns.
func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{
		turns:    make([]Turn, 0, maxTurns*2),
		maxTurns: maxTurns,
	}
}

// MaxTurns returns the configured round-trip budget.
func (m *Manager) MaxTurns() int {
	return m.maxTurns
}

// Len returns the number of turns currently held.
func (m *Manager) Len() int {
	return len(m.turns)
}

// AddTurn appends a turn and drops the oldest entries beyond 2*maxTurns.
func (m *Manager) AddTurn(role Role, content string) {
	m.turns = append(m.turns, Turn{Role: role, Content: content})

	limit := m.maxTurns * 2
	if len(m.turns) > limit {
		kept := make([]Turn, limit, cap(m.turns))
		copy(kept, m.turns[len(m.turns)-limit:])
		m.turns = kept
	}
}

// UpdateContext merges the supplied fields into the snapshot.
// Fields without an option keep their previous value.
func (m *Manager) UpdateContext(opts ...ContextOption) {
	for _, opt := range opts {
		opt(&m.snapshot)
	}
}

// Turns returns a copy of the window in insertion order.
func (m *Manager) Turns() []Turn {
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Snapshot returns a copy of the current context.
func (m *Manager) Snapshot() Snapshot {
	s := m.snapshot
	if s.PreviousResults != nil {
		s.PreviousResults = append([]*Record{}, s.PreviousResults...)
	}
	return s
}

// RenderPrompt decorates base with the transcript and context block.
// It does not modify the manager.
func (m *Manager) RenderPrompt(base string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nConversation history:\n")
	sb.WriteString(m.renderTranscript())
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(m.contextLines(), "\n"))
	return sb.String()
}

// Reset empties the window and the snapshot.
func (m *Manager) Reset() {
	m.turns = make([]Turn, 0, m.maxTurns*2)
	m.snapshot = Snapshot{}
}

func (m *Manager) renderTranscript() string {
	lines := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	return strings.Join(lines, "\n")
}

// contextLines keeps a fixed order: query, SQL, results.
func (m *Manager) contextLines() []string {
	var lines []string
	if m.snapshot.PreviousQuery != "" {
		lines = append(lines, `Previous query: "`+m.snapshot.PreviousQuery+`"`)
	}
	if m.snapshot.PreviousSQL != "" {
		lines = append(lines, "Previous SQL: "+m.snapshot.PreviousSQL)
	}
	if m.snapshot.HasResults() {
		sample := m.snapshot.PreviousResults
		if len(sample) > MaxRenderedResults {
			sample = sample[:MaxRenderedResults]
		}
		data, err := MarshalRecords(sample, "")
		if err != nil {
			data = []byte(fmt.Sprintf("%q", err.Error()))
		}
		lines = append(lines, "Previous results: "+string(data))
	}
	return lines
}
