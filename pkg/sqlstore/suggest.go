package sqlstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

var missingTablePattern = regexp.MustCompile(`no such table: ([\w.]+)`)

// maxSuggestDistance is the largest edit distance still offered as a hint.
const maxSuggestDistance = 3

// TableHintError carries the database error plus the closest known table name.
type TableHintError struct {
	Err        error
	Missing    string
	Suggestion string
}

func (e *TableHintError) Error() string {
	return fmt.Sprintf("%v (did you mean %q?)", e.Err, e.Suggestion)
}

func (e *TableHintError) Unwrap() error {
	return e.Err
}

// SuggestTable returns the table closest to name, or "" when none is close enough.
func SuggestTable(name string, tables []string) string {
	name = strings.ToLower(name)
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, t := range tables {
		d := levenshtein.Distance(name, strings.ToLower(t), nil)
		if d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

func (s *Store) withTableHint(ctx context.Context, err error) error {
	m := missingTablePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	tables, lookupErr := s.TableNames(ctx)
	if lookupErr != nil {
		return err
	}
	if sugg := SuggestTable(m[1], tables); sugg != "" {
		return &TableHintError{Err: err, Missing: m[1], Suggestion: sugg}
	}
	return err
}
