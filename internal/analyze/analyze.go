// Package analyze re-identifies known tactical tasks inside free-text
// orders. The generative backend proposes entity mentions with
// character spans; each mention is validated, resolved against the
// knowledge store by exact name, and enriched with the stored record's
// details. Unresolvable or ill-formed mentions are dropped, never
// surfaced as errors.
package analyze

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/kgriffin/doctrine-engine/internal/genai"
	"github.com/kgriffin/doctrine-engine/internal/store"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// Engine recognizes task mentions in arbitrary text.
type Engine struct {
	gen   genai.Generator
	store *store.Store
	vocab types.VocabularyMode
}

// NewEngine builds a recognition engine. Vocabulary defaults to open
// recognition with post-hoc filtering against the store.
func NewEngine(gen genai.Generator, st *store.Store, cfg types.AnalysisConfig) *Engine {
	vocab := cfg.Vocabulary
	if vocab == "" {
		vocab = types.VocabOpen
	}
	return &Engine{gen: gen, store: st, vocab: vocab}
}

// candidate is the raw, unvalidated shape of one mention in the
// backend's response. Index fields are pointers so a missing field is
// distinguishable from a zero offset.
type candidate struct {
	TaskName   string `json:"task_name"`
	StartIndex *int   `json:"start_index"`
	EndIndex   *int   `json:"end_index"`
}

// valid reports whether the candidate has all required fields and a
// well-formed half-open span.
func (c candidate) valid() bool {
	if store.NormalizeName(c.TaskName) == "" {
		return false
	}
	if c.StartIndex == nil || c.EndIndex == nil {
		return false
	}
	return *c.StartIndex >= 0 && *c.EndIndex >= *c.StartIndex
}

// Text recognizes task mentions in text and returns them in candidate
// order, each enriched with the resolved record's public fields. The
// result is always a (possibly empty) list: backend failures, malformed
// responses, and unresolved names all degrade rather than propagate.
func (e *Engine) Text(ctx context.Context, text string) []types.Mention {
	mentions := []types.Mention{}

	if strings.TrimSpace(text) == "" {
		return mentions
	}

	raw, err := e.gen.Generate(ctx, e.renderPrompt(ctx, text))
	if err != nil {
		slog.Warn("recognition backend call failed", "error", err)
		return mentions
	}

	var cands []candidate
	if err := json.Unmarshal([]byte(genai.StripFences(raw)), &cands); err != nil {
		slog.Warn("recognition response is not a JSON mention list", "error", err)
		return mentions
	}

	for i, c := range cands {
		if !c.valid() {
			slog.Warn("dropping ill-formed mention candidate", "index", i, "task_name", c.TaskName)
			continue
		}

		name := store.NormalizeName(c.TaskName)
		rec, err := e.store.GetByName(ctx, name)
		if err != nil {
			slog.Warn("task lookup failed", "name", name, "error", err)
			continue
		}
		if rec == nil {
			slog.Info("recognized task not in knowledge base, ignoring", "name", name)
			continue
		}

		mentions = append(mentions, types.Mention{
			TaskName:   name,
			StartIndex: *c.StartIndex,
			EndIndex:   *c.EndIndex,
			Details:    rec.Details(),
		})
	}

	return mentions
}

// renderPrompt builds the recognition prompt. In closed-vocabulary mode
// the prompt is constrained to the names currently in the store; a
// failed name listing falls back to the open prompt.
func (e *Engine) renderPrompt(ctx context.Context, text string) string {
	if e.vocab == types.VocabClosed {
		names, err := e.store.ListNames(ctx)
		if err != nil {
			slog.Warn("listing task names failed, using open vocabulary", "error", err)
		} else {
			return renderClosedPrompt(text, names)
		}
	}
	return renderOpenPrompt(text)
}
