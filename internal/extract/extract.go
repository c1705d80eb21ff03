// Package extract builds the tactical task knowledge base from
// field-manual page text. Each page is sent to the generative backend,
// the response is validated into task records, and surviving records
// are embedded and upserted into the store.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kgriffin/doctrine-engine/internal/genai"
	"github.com/kgriffin/doctrine-engine/internal/store"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// PageImage is one image asset embedded in a source page.
type PageImage struct {
	Data []byte
	Ext  string
}

// PageUnit is one unit of source text plus its image assets. Label is
// an opaque identifier used only for traceability (typically the page
// file name or physical page number).
type PageUnit struct {
	Label  string
	Text   string
	Images []PageImage
}

// Engine extracts task records from page units and writes them into
// the knowledge store.
type Engine struct {
	gen       genai.Generator
	emb       genai.Embedder
	store     *store.Store
	sourceRef string
	imageDir  string
}

// NewEngine builds an extraction engine. SourceReference defaults to
// "FM 3-90" when the config leaves it empty.
func NewEngine(gen genai.Generator, emb genai.Embedder, st *store.Store, cfg types.IngestConfig) (*Engine, error) {
	imageDir, err := st.ImageDir()
	if err != nil {
		return nil, err
	}
	sourceRef := cfg.SourceReference
	if sourceRef == "" {
		sourceRef = "FM 3-90"
	}
	return &Engine{
		gen:       gen,
		emb:       emb,
		store:     st,
		sourceRef: sourceRef,
		imageDir:  imageDir,
	}, nil
}

// candidate is the raw, unvalidated shape of one task in the backend's
// response.
type candidate struct {
	Name               string   `json:"name"`
	Definition         string   `json:"definition"`
	FigureReferences   []string `json:"figure_references"`
	DocumentPageNumber string   `json:"document_page_number"`
}

// rejection records why a candidate was dropped during validation.
type rejection struct {
	index  int
	reason string
}

// validateCandidates splits raw candidates into the valid set and the
// rejected set. A candidate missing name, definition, or page number
// is rejected; the rest of the batch is unaffected.
func validateCandidates(cands []candidate) ([]candidate, []rejection) {
	var valid []candidate
	var rejected []rejection
	for i, c := range cands {
		switch {
		case strings.TrimSpace(c.Name) == "":
			rejected = append(rejected, rejection{i, "missing name"})
		case strings.TrimSpace(c.Definition) == "":
			rejected = append(rejected, rejection{i, "missing definition"})
		case strings.TrimSpace(c.DocumentPageNumber) == "":
			rejected = append(rejected, rejection{i, "missing document_page_number"})
		default:
			valid = append(valid, c)
		}
	}
	return valid, rejected
}

// PageSummary holds counts from processing a single page unit.
type PageSummary struct {
	Extracted int
	Rejected  int
	Failed    int
}

// Page processes one page unit: it asks the backend for the tasks on
// the page, validates the response, embeds each surviving task's
// definition, associates a figure image when one is available, and
// upserts the results. Backend and parse failures degrade to an empty
// summary; only context cancellation is returned as an error.
func (e *Engine) Page(ctx context.Context, unit PageUnit) (PageSummary, error) {
	var summary PageSummary

	if strings.TrimSpace(unit.Text) == "" {
		return summary, nil
	}

	raw, err := e.gen.Generate(ctx, renderExtractionPrompt(unit.Text, unit.Label))
	if err != nil {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		slog.Warn("extraction backend call failed", "page", unit.Label, "error", err)
		return summary, nil
	}

	var cands []candidate
	if err := json.Unmarshal([]byte(genai.StripFences(raw)), &cands); err != nil {
		slog.Warn("extraction response is not a JSON task list", "page", unit.Label, "error", err)
		return summary, nil
	}

	valid, rejected := validateCandidates(cands)
	summary.Rejected = len(rejected)
	for _, r := range rejected {
		slog.Warn("dropping incomplete task candidate",
			"page", unit.Label, "index", r.index, "reason", r.reason)
	}

	for _, c := range valid {
		rec := types.TaskRecord{
			Name:            store.NormalizeName(c.Name),
			Definition:      c.Definition,
			PageNumber:      c.DocumentPageNumber,
			SourceReference: e.sourceRef,
			RelatedFigures:  c.FigureReferences,
			Embedding:       genai.EmbedFixed(ctx, e.emb, c.Definition, genai.TaskTypeDocument),
		}

		// First listed figure only; a page with no matching image is
		// not an error.
		if len(c.FigureReferences) > 0 {
			path, err := SaveFigureImage(unit.Images, c.FigureReferences[0], e.imageDir, unit.Label)
			if err != nil {
				slog.Warn("figure image save failed", "page", unit.Label,
					"figure", c.FigureReferences[0], "error", err)
			} else {
				rec.ImagePath = path
			}
		}

		if err := e.store.Upsert(ctx, rec); err != nil {
			slog.Warn("task upsert failed", "page", unit.Label, "name", rec.Name, "error", err)
			summary.Failed++
			continue
		}
		summary.Extracted++
	}

	return summary, nil
}

// BatchSummary holds counts from an ingestion run over a page directory.
type BatchSummary struct {
	Pages     int
	Extracted int
	Rejected  int
	Failed    int
}

// IngestAll processes every .txt page file in pagesDir in name order.
// A page file pages/B-11.txt may have a sibling directory
// pages/B-11.images/ whose files are treated as the page's embedded
// image assets. Failure on one page never aborts the remaining pages.
func (e *Engine) IngestAll(ctx context.Context, pagesDir string, w io.Writer) (BatchSummary, error) {
	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading pages directory %s: %w", pagesDir, err)
	}

	var summary BatchSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		label := strings.TrimSuffix(entry.Name(), ".txt")
		data, err := os.ReadFile(filepath.Join(pagesDir, entry.Name()))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", label, err)
			summary.Failed++
			continue
		}

		unit := PageUnit{
			Label:  label,
			Text:   string(data),
			Images: loadPageImages(filepath.Join(pagesDir, label+".images")),
		}

		page, err := e.Page(ctx, unit)
		if err != nil {
			return summary, err
		}

		fmt.Fprintf(w, "extracted %s (%d tasks, %d rejected)\n", label, page.Extracted, page.Rejected)
		summary.Pages++
		summary.Extracted += page.Extracted
		summary.Rejected += page.Rejected
		summary.Failed += page.Failed
	}

	fmt.Fprintf(w, "\npages: %d, tasks: %d, rejected: %d, failed: %d\n",
		summary.Pages, summary.Extracted, summary.Rejected, summary.Failed)

	if summary.Extracted > 0 {
		if err := e.store.ExportYAML(ctx); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

// loadPageImages reads all files in dir as page image assets. A missing
// directory means the page has no images.
func loadPageImages(dir string) []PageImage {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var images []PageImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("skipping unreadable page image", "path", entry.Name(), "error", err)
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(entry.Name()), ".")
		if ext == "" {
			ext = "png"
		}
		images = append(images, PageImage{Data: data, Ext: ext})
	}
	return images
}
