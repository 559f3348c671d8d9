// Package gemini wraps the Google Gen AI SDK for single-turn receptionist
// replies. Each webhook turn is one GenerateContent call; there is no live
// session to keep open between turns.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Client produces one reply string per call.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates the GenAI client. model may be empty to use the default.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Reply sends the utterance with the receptionist system instruction and
// returns the model's text. The caller bounds latency via ctx; an empty
// model response is reported as an error so the controller can fall back.
func (c *Client) Reply(ctx context.Context, systemPrompt, utterance string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(utterance), config)
	if err != nil {
		return "", fmt.Errorf("GenerateContent failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	return text, nil
}
