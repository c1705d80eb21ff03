// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai wraps the generative-text and embedding capabilities
// used by the extraction and recognition engines. Callers receive the
// capability as an injected handle; a missing API key is modeled as the
// explicit Unavailable implementations rather than a nil client.
package genai

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned by the Unavailable capability handles.
// Components treat it like any other upstream failure and degrade.
var ErrUnavailable = errors.New("genai: capability not configured")

// Generator produces free text from a natural-language instruction.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder produces a provider-native embedding vector for text. The
// returned vector is not guaranteed to have a fixed length; use
// EmbedFixed for the normalized form.
type Embedder interface {
	Embed(ctx context.Context, text, taskType string) ([]float32, error)
}

// UnavailableGenerator is a Generator whose capability is absent.
// Every call fails with ErrUnavailable.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// UnavailableEmbedder is an Embedder whose capability is absent.
type UnavailableEmbedder struct{}

func (UnavailableEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	return nil, ErrUnavailable
}

// StripFences removes a Markdown code fence wrapping from a model
// response. Responses frequently arrive as ```json ... ``` even when
// the prompt asks for bare JSON.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}
