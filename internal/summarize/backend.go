package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// ErrMissingBackend is returned when no summarization backend is
// available, for example because no API key is configured.
var ErrMissingBackend = errors.New("summarization backend not configured")

// Backend completes a prompt and returns the raw model text.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SystemPrompt instructs the model on the summary shape.
const SystemPrompt = `You write concise, developer-friendly summaries of source code.
Rules:
- Give a one-line summary of at most 20 words.
- Give a 2-4 sentence description of the code's purpose.
- List inputs, outputs and side effects when they are clear.
- Suggest a one-line docstring for the function, class or file.
- If the code looks incomplete or suspicious, add a note.
Respond only with a JSON object with keys: one_liner, description, inputs_outputs, docstring, notes.`

// Gemini is a Backend backed by the Gemini API.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini returns a Gemini backend. An empty apiKey yields
// ErrMissingBackend.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingBackend
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

// Complete sends user as the content and system as the system instruction,
// asking for a JSON response at temperature zero.
func (g *Gemini) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: user}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			Temperature:       genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty response from gemini")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
