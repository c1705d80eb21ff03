// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// geminiBaseURL is the Gemini API endpoint prefix. Package-level var
// for test substitution.
var geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Gemini API for both text generation and
// embeddings.
type GeminiClient struct {
	APIKey     string
	Model      string
	EmbedModel string
	Client     *http.Client
}

// NewGeminiClient builds a client from AI configuration. Model and
// EmbedModel fall back to the service defaults when unset.
func NewGeminiClient(cfg types.AIConfig) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = "models/embedding-001"
	}
	return &GeminiClient{
		APIKey:     cfg.APIKey,
		Model:      model,
		EmbedModel: embedModel,
	}
}

// geminiGenerateRequest is the request body for the generateContent API.
type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

// geminiContent is one turn of content in a Gemini request or response.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a single text part.
type geminiPart struct {
	Text string `json:"text"`
}

// geminiGenerateResponse is the response body from generateContent.
type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiEmbedRequest is the request body for the embedContent API.
type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

// geminiEmbedResponse is the response body from embedContent.
type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Generate sends the prompt to the generateContent endpoint and returns
// the first text candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, c.Model, c.APIKey)
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	var resp geminiGenerateResponse
	if err := c.post(ctx, url, reqBody, &resp); err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return part.Text, nil
			}
		}
	}
	return "", fmt.Errorf("Gemini API returned no text candidates")
}

// Embed sends text to the embedContent endpoint with a task-type hint
// and returns the provider-native vector.
func (c *GeminiClient) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	url := fmt.Sprintf("%s/%s:embedContent?key=%s", geminiBaseURL, c.EmbedModel, c.APIKey)
	reqBody := geminiEmbedRequest{
		Model:    c.EmbedModel,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: taskType,
	}

	var resp geminiEmbedResponse
	if err := c.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("Gemini API returned empty embedding")
	}
	return resp.Embedding.Values, nil
}

func (c *GeminiClient) post(ctx context.Context, url string, reqBody, out any) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding Gemini response: %w", err)
	}
	return nil
}
