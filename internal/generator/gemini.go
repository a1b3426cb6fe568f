package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiRunner generates text through the Gemini API instead of a local tool
type GeminiRunner struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiRunner creates a Gemini-backed runner
func NewGeminiRunner(ctx context.Context, apiKey, model string, temperature float32) (*GeminiRunner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiRunner{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Run sends the prompt as a single text part
func (r *GeminiRunner) Run(ctx context.Context, prompt string) (string, error) {
	model := r.client.GenerativeModel(r.model)
	model.SetTemperature(r.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ProcessError{
			ExitCode: -1,
			Message:  err.Error(),
			Cause:    err,
		}
	}

	return responseText(resp)
}

// Close releases the API client
func (r *GeminiRunner) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

var errNoCandidates = errors.New("no candidates in response")

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ProcessError{ExitCode: -1, Message: errNoCandidates.Error(), Cause: errNoCandidates}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
