package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(pairs ...any) *Record {
	r := NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

func contents(turns []Turn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Content)
	}
	return out
}

func TestAddTurnKeepsNewestWithinBudget(t *testing.T) {
	m := NewManager(2)
	for _, c := range []string{"A", "B", "C", "D", "E"} {
		m.AddTurn(RoleUser, c)
		assert.LessOrEqual(t, m.Len(), 4)
	}
	assert.Equal(t, []string{"B", "C", "D", "E"}, contents(m.Turns()))
}

func TestAddTurnWindowInvariant(t *testing.T) {
	for _, maxTurns := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", maxTurns), func(t *testing.T) {
			m := NewManager(maxTurns)
			var added []string
			for i := 0; i < 4*maxTurns+1; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				c := fmt.Sprintf("msg-%d", i)
				m.AddTurn(role, c)
				added = append(added, c)

				require.LessOrEqual(t, m.Len(), 2*maxTurns)
				start := len(added) - m.Len()
				assert.Equal(t, added[start:], contents(m.Turns()))
			}
		})
	}
}

func TestAddTurnAcceptsEmptyContent(t *testing.T) {
	m := NewManager(1)
	m.AddTurn(RoleUser, "")
	require.Len(t, m.Turns(), 1)
	assert.Equal(t, Turn{Role: RoleUser, Content: ""}, m.Turns()[0])
}

func TestNewManagerDefaultsNonPositiveBudget(t *testing.T) {
	assert.Equal(t, DefaultMaxTurns, NewManager(0).MaxTurns())
	assert.Equal(t, DefaultMaxTurns, NewManager(-3).MaxTurns())
	assert.Equal(t, 7, NewManager(7).MaxTurns())
}

func TestUpdateContextMergesFields(t *testing.T) {
	m := NewManager(5)
	assert.Equal(t, Snapshot{}, m.Snapshot())

	m.UpdateContext(WithQuery("list patients"))
	assert.Equal(t, "list patients", m.Snapshot().PreviousQuery)
	assert.Empty(t, m.Snapshot().PreviousSQL)

	m.UpdateContext(WithSQL("SELECT * FROM patients"))
	snap := m.Snapshot()
	assert.Equal(t, "list patients", snap.PreviousQuery)
	assert.Equal(t, "SELECT * FROM patients", snap.PreviousSQL)
	assert.False(t, snap.HasResults())
}

func TestUpdateContextFieldsAreIndependent(t *testing.T) {
	m := NewManager(5)
	m.UpdateContext(WithSQL("X"))
	m.UpdateContext(WithQuery("Y"))

	snap := m.Snapshot()
	assert.Equal(t, "X", snap.PreviousSQL)
	assert.Equal(t, "Y", snap.PreviousQuery)
}

func TestWithResultsNilIsEmptySet(t *testing.T) {
	m := NewManager(5)
	m.UpdateContext(WithResults(nil))
	assert.True(t, m.Snapshot().HasResults())
	assert.Contains(t, m.RenderPrompt("p"), "Previous results: []")
}

func TestRenderPromptFormat(t *testing.T) {
	m := NewManager(5)
	m.AddTurn(RoleUser, "list patients")
	m.AddTurn(RoleAssistant, "SQL: SELECT name FROM patients")
	m.UpdateContext(
		WithQuery("list patients"),
		WithSQL("SELECT name FROM patients"),
		WithResults([]*Record{record("id", int64(1), "name", "Ann")}),
	)

	want := "Base\n\n" +
		"Conversation history:\n" +
		"user: list patients\n" +
		"assistant: SQL: SELECT name FROM patients\n\n" +
		"Context:\n" +
		"Previous query: \"list patients\"\n" +
		"Previous SQL: SELECT name FROM patients\n" +
		`Previous results: [{"id":1,"name":"Ann"}]`
	assert.Equal(t, want, m.RenderPrompt("Base"))
}

func TestRenderPromptOmitsAbsentFields(t *testing.T) {
	m := NewManager(5)
	m.UpdateContext(WithSQL("SELECT 1"))

	out := m.RenderPrompt("p")
	assert.NotContains(t, out, "Previous query")
	assert.NotContains(t, out, "Previous results")
	assert.True(t, strings.HasSuffix(out, "Context:\nPrevious SQL: SELECT 1"))
}

func TestRenderPromptCapsResultSample(t *testing.T) {
	m := NewManager(5)
	rows := []*Record{
		record("id", 1), record("id", 2), record("id", 3), record("id", 4),
	}
	m.UpdateContext(WithResults(rows))

	out := m.RenderPrompt("p")
	assert.Contains(t, out, `Previous results: [{"id":1},{"id":2}]`)
	assert.NotContains(t, out, `"id":3`)
	assert.Len(t, m.Snapshot().PreviousResults, 4, "snapshot keeps the full set")
}

func TestRenderPromptIsPure(t *testing.T) {
	m := NewManager(1)
	m.AddTurn(RoleUser, "q")
	m.UpdateContext(WithQuery("q"))

	first := m.RenderPrompt("p")
	assert.Equal(t, first, m.RenderPrompt("p"))
	assert.Equal(t, 1, m.Len())
}

func TestRenderPromptPreservesColumnOrder(t *testing.T) {
	m := NewManager(1)
	m.UpdateContext(WithResults([]*Record{record("zeta", "z", "alpha", "a")}))
	assert.Contains(t, m.RenderPrompt(""), `[{"zeta":"z","alpha":"a"}]`)
}

func TestResetMatchesFreshManager(t *testing.T) {
	m := NewManager(2)
	m.AddTurn(RoleUser, "hello")
	m.AddTurn(RoleAssistant, "hi")
	m.UpdateContext(WithQuery("q"), WithSQL("s"), WithResults([]*Record{record("a", 1)}))

	m.Reset()

	fresh := NewManager(2)
	assert.Equal(t, fresh.RenderPrompt("p"), m.RenderPrompt("p"))
	assert.Equal(t, "p\n\nConversation history:\n\n\nContext:\n", m.RenderPrompt("p"))
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Snapshot().HasResults())
}

func TestResetReleasesOldTurns(t *testing.T) {
	m := NewManager(2)
	m.AddTurn(RoleUser, "hello")
	before := m.turns

	m.Reset()
	m.AddTurn(RoleUser, "after clear")

	assert.Equal(t, "hello", before[0].Content, "reset must not reuse the old backing array")
	assert.Equal(t, []string{"after clear"}, contents(m.Turns()))
}

func TestRenderPromptKeepsHTMLCharacters(t *testing.T) {
	m := NewManager(1)
	m.UpdateContext(WithResults([]*Record{record("name", "Smith & <Co>", "note", "a > b")}))
	assert.Contains(t, m.RenderPrompt(""), `Previous results: [{"name":"Smith & <Co>","note":"a > b"}]`)
}

func TestSnapshotJSONKeepsEmptyResults(t *testing.T) {
	m := NewManager(1)
	m.UpdateContext(WithResults(nil))

	data, err := json.Marshal(m.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"previous_results":[]`)
	assert.Contains(t, m.RenderPrompt(""), "Previous results: []")
}

func TestMarshalRecordsIndent(t *testing.T) {
	rows := []*Record{record("id", 1, "name", "A & B"), record("id", 2, "name", nil)}

	data, err := MarshalRecords(rows, "  ")
	require.NoError(t, err)
	want := "[\n  {\n    \"id\": 1,\n    \"name\": \"A & B\"\n  },\n  {\n    \"id\": 2,\n    \"name\": null\n  }\n]"
	assert.Equal(t, want, string(data))

	data, err = MarshalRecords([]*Record{}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestTurnsReturnsCopy(t *testing.T) {
	m := NewManager(2)
	m.AddTurn(RoleUser, "a")
	turns := m.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "a", m.Turns()[0].Content)
}
