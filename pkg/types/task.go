// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EmbeddingDim is the fixed dimensionality of all stored and query
// embedding vectors. Provider-native vectors are padded or truncated
// to this length before storage.
const EmbeddingDim = 1536

// TaskRecord is a canonical tactical task held in the knowledge store.
// Name is the lookup key and is always stored upper-cased.
type TaskRecord struct {
	// ID is the database row identifier. Zero until stored.
	ID int64 `json:"id" yaml:"id"`

	// Name is the task name, unique within the store (e.g. "SEIZE").
	Name string `json:"name" yaml:"name"`

	// Definition is the task's doctrinal definition text.
	Definition string `json:"definition" yaml:"definition"`

	// PageNumber is the document-internal page label as printed on the
	// source page. Alphanumeric labels like "B-11" are common.
	PageNumber string `json:"page_number" yaml:"page_number"`

	// SourceReference identifies the source document (e.g. "FM 3-90").
	SourceReference string `json:"source_reference" yaml:"source_reference"`

	// RelatedFigures lists figure references mentioned in or near the
	// definition (e.g. "Figure B-23"). May be empty.
	RelatedFigures []string `json:"related_figures" yaml:"related_figures"`

	// ImagePath is the public-facing path of an extracted figure image,
	// or empty when no image was found.
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`

	// Embedding is the definition's embedding vector. When present it
	// has exactly EmbeddingDim components.
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// TaskDetails is the public snapshot of a TaskRecord carried on a
// Mention. It omits the embedding, which annotation consumers do not
// need.
type TaskDetails struct {
	ID              int64    `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Definition      string   `json:"definition" yaml:"definition"`
	PageNumber      string   `json:"page_number" yaml:"page_number"`
	SourceReference string   `json:"source_reference" yaml:"source_reference"`
	RelatedFigures  []string `json:"related_figures" yaml:"related_figures"`
	ImagePath       string   `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Details returns the record's public fields as a snapshot copy.
func (r TaskRecord) Details() TaskDetails {
	figures := make([]string, len(r.RelatedFigures))
	copy(figures, r.RelatedFigures)
	return TaskDetails{
		ID:              r.ID,
		Name:            r.Name,
		Definition:      r.Definition,
		PageNumber:      r.PageNumber,
		SourceReference: r.SourceReference,
		RelatedFigures:  figures,
		ImagePath:       r.ImagePath,
	}
}

// Mention is a resolved occurrence of a known task name inside analyzed
// text. StartIndex and EndIndex are 0-based half-open character offsets
// into the analyzed text: the mention covers [StartIndex, EndIndex).
type Mention struct {
	TaskName   string      `json:"task_name" yaml:"task_name"`
	StartIndex int         `json:"start_index" yaml:"start_index"`
	EndIndex   int         `json:"end_index" yaml:"end_index"`
	Details    TaskDetails `json:"details" yaml:"details"`
}

// OrderDocument is an operation order whose content the engine analyzes.
// AnalysisResults holds the mentions found on the most recent completed
// run; AnalysisError records why the most recent run could not persist
// results, and is empty on success.
type OrderDocument struct {
	ID              int64     `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Content         string    `json:"content" yaml:"content"`
	AnalysisResults []Mention `json:"analysis_results" yaml:"analysis_results"`
	AnalysisError   string    `json:"analysis_error,omitempty" yaml:"analysis_error,omitempty"`
}
