package conversation

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultMaxTurns is the number of user/assistant round trips kept in the window.
const DefaultMaxTurns = 5

// Turn is one message exchanged in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Record is a single result row keyed by column name. Column order is the
// order the database returned them in and is kept when serialized.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

// Snapshot is the latest known query state carried between turns.
// Empty strings and a nil result slice mean "not set".
type Snapshot struct {
	PreviousQuery   string    `json:"previous_query,omitempty"`
	PreviousSQL     string    `json:"previous_sql,omitempty"`
	PreviousResults []*Record `json:"previous_results"`
}

// HasResults reports whether a result set was ever supplied, even an empty one.
func (s Snapshot) HasResults() bool {
	return s.PreviousResults != nil
}

// ContextOption overwrites one field of a Snapshot.
type ContextOption func(*Snapshot)

// WithQuery sets the previous natural language query.
func WithQuery(q string) ContextOption {
	return func(s *Snapshot) { s.PreviousQuery = q }
}

// WithSQL sets the previous generated SQL.
func WithSQL(sql string) ContextOption {
	return func(s *Snapshot) { s.PreviousSQL = sql }
}

// WithResults sets the previous result rows. A nil slice is stored as an
// empty set so that the field still counts as supplied.
func WithResults(rows []*Record) ContextOption {
	return func(s *Snapshot) {
		if rows == nil {
			rows = []*Record{}
		}
		s.PreviousResults = rows
	}
}
