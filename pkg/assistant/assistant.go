package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/duynguyendang/askdb/pkg/common/errors"
	"github.com/duynguyendang/askdb/pkg/conversation"
	"github.com/duynguyendang/askdb/pkg/prompts"
	"github.com/duynguyendang/askdb/pkg/service/ai"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SummarySampleSize is how many rows the summarization prompt shows the model.
const SummarySampleSize = 3

// Executor runs SQL text and returns the produced rows.
type Executor interface {
	Query(ctx context.Context, query string) ([]*conversation.Record, error)
}

// Answer is the outcome of one successful turn.
type Answer struct {
	TurnID  string                 `json:"turn_id"`
	SQL     string                 `json:"sql"`
	Rows    []*conversation.Record `json:"rows"`
	Summary string                 `json:"summary"`
}

// History is a read-only view of the conversation.
type History struct {
	MaxTurns int                   `json:"max_turns"`
	Turns    []conversation.Turn   `json:"turns"`
	Context  conversation.Snapshot `json:"context"`
}

// Assistant runs question → SQL → rows → summary turns over one conversation.
// Turns are serialized; callers may share one Assistant.
type Assistant struct {
	mu      sync.Mutex
	conv    *conversation.Manager
	gen     ai.Generator
	db      Executor
	prompts *prompts.Registry
	schema  string
	logger  zerolog.Logger
}

// Options wires an Assistant's collaborators.
type Options struct {
	Conversation *conversation.Manager
	Generator    ai.Generator
	Executor     Executor
	Prompts      *prompts.Registry
	// Schema is the table description injected into SQL-generation prompts.
	Schema string
	Logger zerolog.Logger
}

// New builds an Assistant. A nil Conversation or Prompts gets a default.
func New(opts Options) *Assistant {
	conv := opts.Conversation
	if conv == nil {
		conv = conversation.NewManager(conversation.DefaultMaxTurns)
	}
	reg := opts.Prompts
	if reg == nil {
		reg = prompts.Builtin()
	}
	return &Assistant{
		conv:    conv,
		gen:     opts.Generator,
		db:      opts.Executor,
		prompts: reg,
		schema:  opts.Schema,
		logger:  opts.Logger,
	}
}

// Schema returns the schema description used in prompts.
func (a *Assistant) Schema() string {
	return a.schema
}

// Ask processes one natural-language question. State recorded before a
// failure is kept.
func (a *Assistant) Ask(ctx context.Context, question string) (*Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	turnID := uuid.NewString()
	log := a.logger.With().Str("turn_id", turnID).Logger()
	start := time.Now()

	a.conv.AddTurn(conversation.RoleUser, question)

	raw, err := a.generate(ctx, prompts.GenerateSQL, map[string]any{
		"schema":   a.schema,
		"question": question,
	})
	if err != nil {
		log.Warn().Err(err).Msg("sql generation failed")
		return nil, err
	}
	query := StripCodeFence(raw)
	log.Debug().Str("sql", query).Msg("sql generated")

	rows, err := a.db.Query(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("sql", query).Msg("sql execution failed")
		return nil, apperrors.Execution(err)
	}

	a.conv.UpdateContext(
		conversation.WithQuery(question),
		conversation.WithSQL(query),
		conversation.WithResults(rows),
	)

	sample, err := sampleJSON(rows)
	if err != nil {
		return nil, err
	}
	summary, err := a.generate(ctx, prompts.DescribeResults, map[string]any{
		"question": question,
		"sample":   sample,
	})
	if err != nil {
		log.Warn().Err(err).Msg("result summary failed")
		return nil, err
	}

	a.conv.AddTurn(conversation.RoleAssistant, fmt.Sprintf("SQL: %s\nSummary: %s", query, summary))

	log.Info().
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("turn completed")

	return &Answer{
		TurnID:  turnID,
		SQL:     query,
		Rows:    rows,
		Summary: summary,
	}, nil
}

// Clear resets the conversation without touching the model or database.
func (a *Assistant) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conv.Reset()
	a.logger.Info().Msg("conversation cleared")
}

// History returns a snapshot of the conversation.
func (a *Assistant) History() History {
	a.mu.Lock()
	defer a.mu.Unlock()
	return History{
		MaxTurns: a.conv.MaxTurns(),
		Turns:    a.conv.Turns(),
		Context:  a.conv.Snapshot(),
	}
}

// generate renders the named prompt with the conversation context and sends
// it with the prompt's own temperature, if it sets one. Every failure is a
// model error except a broken template.
func (a *Assistant) generate(ctx context.Context, name string, data map[string]any) (string, error) {
	p, err := a.prompts.Get(name)
	if err != nil {
		return "", err
	}
	base, err := p.Execute(data)
	if err != nil {
		return "", err
	}
	out, err := a.gen.Generate(ctx, ai.Request{
		Prompt:      a.conv.RenderPrompt(base),
		Temperature: p.Config.Temperature,
	})
	if err != nil {
		return "", modelError(err)
	}
	return out, nil
}

func modelError(err error) error {
	if errors.Is(err, apperrors.ErrModel) {
		return err
	}
	return apperrors.Model(err)
}

func sampleJSON(rows []*conversation.Record) (string, error) {
	sample := rows
	if len(sample) > SummarySampleSize {
		sample = sample[:SummarySampleSize]
	}
	data, err := conversation.MarshalRecords(sample, "  ")
	if err != nil {
		return "", fmt.Errorf("encode result sample: %w", err)
	}
	return string(data), nil
}
