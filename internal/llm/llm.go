// ABOUTME: Model capabilities used by the assistant: text embedding and text generation
// ABOUTME: Backends are OpenAI-compatible (embeddings + chat), Vertex Gemini and Anthropic
package llm

import (
	"context"
	"errors"
	"strings"
)

// TaskType hints what an embedding will be used for
type TaskType string

const (
	TaskRetrievalDocument TaskType = "retrieval_document"
	TaskRetrievalQuery    TaskType = "retrieval_query"
)

// DefaultTemperature is used when a request does not set one
const DefaultTemperature = 0.2

var (
	// ErrEmptyInput is returned before any upstream call when the text is blank
	ErrEmptyInput = errors.New("input text is empty")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from model")
)

// Embedder maps text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string, task TaskType) ([]float64, error)
}

// GenerateOptions tunes a single generation request
type GenerateOptions struct {
	// System is prepended to the prompt, separated by a blank line
	System string
	// Temperature overrides the client default when non-nil
	Temperature *float64
}

// Generator completes a prompt into text
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Temperature is a helper for GenerateOptions.Temperature
func Temperature(t float64) *float64 {
	return &t
}

// ComposePrompt joins an optional system instruction and the prompt
func ComposePrompt(system, prompt string) string {
	if system == "" {
		return prompt
	}
	return system + "\n\n" + prompt
}

// finish trims model output and rejects empty text
func finish(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func temperatureOr(opts GenerateOptions, def float64) float64 {
	if opts.Temperature != nil {
		return *opts.Temperature
	}
	return def
}
