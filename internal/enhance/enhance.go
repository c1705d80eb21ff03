// Package enhance rewrites military text through the generative
// backend. Enhancement is best-effort: any backend failure returns the
// original text unchanged.
package enhance

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"text/template"

	"github.com/kgriffin/doctrine-engine/internal/genai"
)

// Type selects the enhancement focus.
type Type string

const (
	General     Type = "general"
	Conciseness Type = "conciseness"
	Clarity     Type = "clarity"
	Impact      Type = "impact"
)

// focusInstructions maps each enhancement type to its prompt
// instruction. Unknown types fall back to a generic instruction.
var focusInstructions = map[Type]string{
	General:     "Enhance this military text while maintaining accuracy and clarity.",
	Conciseness: "Make this military text more concise while preserving key information.",
	Clarity:     "Improve the clarity of this military text while maintaining technical accuracy.",
	Impact:      "Enhance the impact and directness of this military text.",
}

var enhancePromptTmpl = template.Must(template.New("enhance").Parse(`You are a military writing expert. Your task is to enhance the following text.

Instructions: {{.Focus}}
- Preserve all tactical and operational meaning
- Maintain military terminology and doctrine
- Keep the same level of detail and specificity
- Focus on readability and effectiveness

Text to enhance:
{{.Text}}

Enhanced version:`))

// Response pairs the original text with its enhanced version.
type Response struct {
	OriginalText string `json:"original_text" yaml:"original_text"`
	EnhancedText string `json:"enhanced_text" yaml:"enhanced_text"`
}

// Text enhances the given text with the selected focus. On any backend
// failure, or when the backend returns an empty suggestion, the
// enhanced text is the original text.
func Text(ctx context.Context, gen genai.Generator, text string, typ Type) Response {
	focus, ok := focusInstructions[typ]
	if !ok {
		focus = "Enhance this military text."
	}

	var buf bytes.Buffer
	enhancePromptTmpl.Execute(&buf, struct{ Focus, Text string }{Focus: focus, Text: text})

	raw, err := gen.Generate(ctx, buf.String())
	if err != nil {
		slog.Warn("enhancement backend call failed, returning original text", "error", err)
		return Response{OriginalText: text, EnhancedText: text}
	}

	enhanced := strings.TrimSpace(raw)
	if enhanced == "" {
		slog.Warn("enhancement backend returned empty suggestion")
		enhanced = text
	}
	return Response{OriginalText: text, EnhancedText: enhanced}
}
