package types

// AIConfig holds shared settings for components that call the
// generative AI API.
type AIConfig struct {
	// Model is the generative model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// EmbedModel is the embedding model identifier
	// (e.g. "models/embedding-001").
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// StoreConfig holds settings for the knowledge store.
type StoreConfig struct {
	// DataDir is the base directory for engine state (contains index/
	// and public/task_images/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of similarity results
	// (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// IngestConfig holds settings for the extraction stage.
type IngestConfig struct {
	AIConfig `yaml:",inline"`

	// PagesDir is the directory of page text files to ingest. A page
	// file pages/B-11.txt may have a sibling asset directory
	// pages/B-11.images/ holding the page's embedded images.
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`

	// SourceReference is recorded on every extracted task
	// (default "FM 3-90").
	SourceReference string `json:"source_reference" yaml:"source_reference"`
}

// VocabularyMode selects how recognition prompts are built.
type VocabularyMode string

const (
	// VocabOpen recognizes any task-like entity and filters against
	// the store afterward.
	VocabOpen VocabularyMode = "open"

	// VocabClosed constrains the prompt to the task names currently in
	// the store.
	VocabClosed VocabularyMode = "closed"
)

// AnalysisConfig holds settings for the recognition stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// Vocabulary selects open or closed vocabulary prompting
	// (default open).
	Vocabulary VocabularyMode `json:"vocabulary" yaml:"vocabulary"`
}

// EngineConfig groups all stage configurations.
type EngineConfig struct {
	Store    StoreConfig    `json:"store" yaml:"store"`
	Ingest   IngestConfig   `json:"ingest" yaml:"ingest"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
}
