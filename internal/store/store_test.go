package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	s, err := NewStore(types.StoreConfig{DataDir: tmpDir, MaxResults: 5})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, tmpDir
}

// embeddingWith returns a fixed-dimension vector whose first components
// are the given values.
func embeddingWith(vals ...float32) []float32 {
	vec := make([]float32, types.EmbeddingDim)
	copy(vec, vals)
	return vec
}

func sampleTask(name string) types.TaskRecord {
	return types.TaskRecord{
		Name:            name,
		Definition:      "To take possession of a designated area.",
		PageNumber:      "B-11",
		SourceReference: "FM 3-90",
		RelatedFigures:  []string{"Figure B-23"},
		Embedding:       embeddingWith(1, 0, 0),
	}
}

func TestUpsertAndGetByName(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleTask("seize")))

	rec, err := s.GetByName(ctx, "SEIZE")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "SEIZE", rec.Name)
	assert.Equal(t, "B-11", rec.PageNumber)
	assert.Equal(t, []string{"Figure B-23"}, rec.RelatedFigures)
	assert.Len(t, rec.Embedding, types.EmbeddingDim)

	// Lookup normalizes the key the same way storage does.
	rec, err = s.GetByName(ctx, "  seize ")
	require.NoError(t, err)
	require.NotNil(t, rec)

	rec, err = s.GetByName(ctx, "OCCUPY")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUpsertMergesOnConflict(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleTask("SEIZE")))

	updated := sampleTask("SEIZE")
	updated.Definition = "Revised definition."
	updated.PageNumber = "B-12"
	updated.ImagePath = "public/task_images/figure_b-23_pdfpage410_0.png"
	require.NoError(t, s.Upsert(ctx, updated))

	rec, err := s.GetByName(ctx, "SEIZE")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Revised definition.", rec.Definition)
	assert.Equal(t, "B-12", rec.PageNumber)
	assert.Equal(t, "public/task_images/figure_b-23_pdfpage410_0.png", rec.ImagePath)

	names, err := s.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SEIZE"}, names)
}

func TestUpsertIdempotent(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	task := sampleTask("SEIZE")
	require.NoError(t, s.Upsert(ctx, task))
	first, err := s.GetByName(ctx, "SEIZE")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, task))
	second, err := s.GetByName(ctx, "SEIZE")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUpsertValidation(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, types.TaskRecord{Name: "  ", Definition: "x"})
	assert.Error(t, err)

	bad := sampleTask("SEIZE")
	bad.Embedding = []float32{1, 2, 3}
	err = s.Upsert(ctx, bad)
	assert.Error(t, err)
}

func TestListNamesInsertionOrder(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"seize", "occupy", "attack by fire"} {
		require.NoError(t, s.Upsert(ctx, sampleTask(name)))
	}

	names, err := s.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SEIZE", "OCCUPY", "ATTACK BY FIRE"}, names)
}

func TestNearest(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	a := sampleTask("SEIZE")
	a.Embedding = embeddingWith(1, 0, 0)
	b := sampleTask("OCCUPY")
	b.Embedding = embeddingWith(0, 1, 0)
	c := sampleTask("CLEAR")
	c.Embedding = embeddingWith(0.9, 0.1, 0)
	require.NoError(t, s.Upsert(ctx, a))
	require.NoError(t, s.Upsert(ctx, b))
	require.NoError(t, s.Upsert(ctx, c))

	results, err := s.Nearest(ctx, embeddingWith(1, 0, 0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "SEIZE", results[0].Name)
	assert.Equal(t, "CLEAR", results[1].Name)
}

func TestNearestNeverExceedsK(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleTask("SEIZE")))

	results, err := s.Nearest(ctx, embeddingWith(1, 0, 0), 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.Nearest(ctx, embeddingWith(1, 0, 0), 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 5)
}

func TestNearestTiesKeepInsertionOrder(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"SEIZE", "OCCUPY", "CLEAR"} {
		task := sampleTask(name)
		task.Embedding = embeddingWith(1, 0, 0)
		require.NoError(t, s.Upsert(ctx, task))
	}

	results, err := s.Nearest(ctx, embeddingWith(0, 1, 0), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "SEIZE", results[0].Name)
	assert.Equal(t, "OCCUPY", results[1].Name)
	assert.Equal(t, "CLEAR", results[2].Name)
}

func TestNearestRejectsWrongDimension(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.Nearest(context.Background(), []float32{1, 2, 3}, 5)
	assert.Error(t, err)
}

func TestNearestSkipsRecordsWithoutEmbedding(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	bare := sampleTask("SEIZE")
	bare.Embedding = nil
	require.NoError(t, s.Upsert(ctx, bare))

	results, err := s.Nearest(ctx, embeddingWith(1, 0, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3}
	got := blobToVector(vectorToBlob(vec), len(vec))
	assert.Equal(t, vec, got)
}

// --- orders ---

func TestOrderLifecycle(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	id, err := s.CreateOrder(ctx, "OPORD 25-01", "The platoon will SEIZE the bridge.")
	require.NoError(t, err)

	doc, err := s.GetOrder(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "OPORD 25-01", doc.Title)
	assert.Nil(t, doc.AnalysisResults)

	ok, err := s.UpdateOrderContent(ctx, id, "Revised content.")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateOrderContent(ctx, id+100, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := s.GetOrder(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveAnalysis(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	id, err := s.CreateOrder(ctx, "OPORD", "content")
	require.NoError(t, err)

	mentions := []types.Mention{
		{TaskName: "SEIZE", StartIndex: 18, EndIndex: 23, Details: types.TaskDetails{Name: "SEIZE"}},
	}
	require.NoError(t, s.SaveAnalysis(ctx, id, mentions))

	doc, err := s.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, doc.AnalysisResults, 1)
	assert.Equal(t, "SEIZE", doc.AnalysisResults[0].TaskName)
	assert.Equal(t, 18, doc.AnalysisResults[0].StartIndex)
	assert.Empty(t, doc.AnalysisError)

	// nil mentions persist as an empty list, not null.
	require.NoError(t, s.SaveAnalysis(ctx, id, nil))
	doc, err = s.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, doc.AnalysisResults)
	assert.Empty(t, doc.AnalysisResults)

	err = s.SaveAnalysis(ctx, id+100, mentions)
	assert.Error(t, err)
}

func TestSaveAnalysisError(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	id, err := s.CreateOrder(ctx, "OPORD", "content")
	require.NoError(t, err)

	require.NoError(t, s.SaveAnalysisError(ctx, id, "store write failed"))

	doc, err := s.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "store write failed", doc.AnalysisError)

	// A later successful save clears the marker.
	require.NoError(t, s.SaveAnalysis(ctx, id, nil))
	doc, err = s.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, doc.AnalysisError)
}

// --- export ---

func TestExportYAML(t *testing.T) {
	s, tmpDir := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, sampleTask("SEIZE")))
	require.NoError(t, s.Upsert(ctx, sampleTask("OCCUPY")))
	require.NoError(t, s.ExportYAML(ctx))

	data, err := os.ReadFile(filepath.Join(tmpDir, indexDir, "export.yaml"))
	require.NoError(t, err)

	var entries []ExportEntry
	require.NoError(t, yaml.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "SEIZE", entries[0].Name)
	assert.Equal(t, "OCCUPY", entries[1].Name)
}
