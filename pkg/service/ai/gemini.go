package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/duynguyendang/askdb/pkg/common/errors"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 30 * time.Second

// Request is a single generation call.
type Request struct {
	Prompt string
	// Temperature overrides the service's configured temperature when set.
	Temperature *float32
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeminiConfig configures a GeminiService.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// GeminiService sends single-turn prompts to the Gemini API.
type GeminiService struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  zerolog.Logger
}

// NewGeminiService creates a client for the configured model.
func NewGeminiService(ctx context.Context, cfg GeminiConfig, logger zerolog.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(cfg.Temperature)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &GeminiService{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "gemini").Str("model", modelName).Logger(),
	}, nil
}

// Close releases the underlying client.
func (s *GeminiService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Generate sends the prompt as a single user turn and returns the first
// candidate's first text part, trimmed. A response without text yields "".
func (s *GeminiService) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.modelFor(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("generate content failed")
		return "", apperrors.Model(err)
	}

	text := FirstText(resp)
	s.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("prompt_len", len(req.Prompt)).
		Int("response_len", len(text)).
		Msg("generate content")
	return text, nil
}

// modelFor returns the shared model, or a copy carrying the request's
// temperature. The shared model is never mutated.
func (s *GeminiService) modelFor(req Request) *genai.GenerativeModel {
	if req.Temperature == nil {
		return s.model
	}
	m := *s.model
	m.SetTemperature(*req.Temperature)
	return &m
}

// FirstText extracts the first text part of the first candidate.
func FirstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 {
		return ""
	}
	if txt, ok := c.Content.Parts[0].(genai.Text); ok {
		return strings.TrimSpace(string(txt))
	}
	return ""
}
