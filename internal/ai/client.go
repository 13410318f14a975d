// Package ai wraps the OpenAI API for review summaries, writing assistance,
// and recording transcription.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured is returned when no API key was provided.
	ErrNotConfigured = errors.New("ai client not configured")

	// ErrUpstream wraps any failure reported by the AI provider.
	ErrUpstream = errors.New("ai provider error")
)

// Config holds connection settings for the AI provider.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
	Timeout         time.Duration
}

// Client performs completions and transcriptions. A zero API key yields a
// client whose calls fail with ErrNotConfigured.
type Client struct {
	oa              openai.Client
	model           string
	transcribeModel string
	timeout         time.Duration
	configured      bool
	log             zerolog.Logger
}

// New builds a client from cfg. Retries are disabled; callers decide whether
// a failed call is worth repeating.
func New(cfg Config, lg zerolog.Logger) *Client {
	c := &Client{
		model:           orDefault(cfg.Model, "gpt-4"),
		transcribeModel: orDefault(cfg.TranscribeModel, string(openai.AudioModelWhisper1)),
		timeout:         cfg.Timeout,
		configured:      strings.TrimSpace(cfg.APIKey) != "",
		log:             lg.With().Str("component", "ai").Logger(),
	}
	if !c.configured {
		return c
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c.oa = openai.NewClient(opts...)
	return c
}

// Configured reports whether calls can reach the provider.
func (c *Client) Configured() bool { return c != nil && c.configured }

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.oa.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(c.model),
	})
	if err != nil {
		c.logFailure(err, "completion")
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUpstream)
	}
	c.log.Debug().Dur("took", time.Since(start)).Str("model", c.model).Msg("completion done")
	return resp.Choices[0].Message.Content, nil
}

// Transcribe uploads the audio file at path and returns its transcript.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tr, err := c.oa.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(c.transcribeModel),
	})
	if err != nil {
		c.logFailure(err, "transcription")
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(tr.Text), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) logFailure(err error, op string) {
	ev := c.log.Warn().Err(err).Str("op", op)
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		ev = ev.Int("status", apiErr.StatusCode)
	}
	ev.Msg("ai call failed")
}
