package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgriffin/doctrine-engine/internal/store"
	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// stubAnalyzer returns fixed mentions and records the texts it saw.
type stubAnalyzer struct {
	mu       sync.Mutex
	mentions []types.Mention
	texts    []string
}

func (a *stubAnalyzer) Text(_ context.Context, text string) []types.Mention {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.texts = append(a.texts, text)
	return a.mentions
}

func (a *stubAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.texts)
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestWorkerPersistsAnalysis(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateOrder(ctx, "OPORD", "The platoon will SEIZE the bridge.")
	require.NoError(t, err)

	analyzer := &stubAnalyzer{mentions: []types.Mention{
		{TaskName: "SEIZE", StartIndex: 18, EndIndex: 23},
	}}
	w := NewWorker(st, analyzer)
	w.Enqueue(id)
	w.Close()

	doc, err := st.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, doc.AnalysisResults, 1)
	assert.Equal(t, "SEIZE", doc.AnalysisResults[0].TaskName)
	assert.Equal(t, []string{"The platoon will SEIZE the bridge."}, analyzer.texts)
}

func TestWorkerBlankContentSkipsAnalyzer(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateOrder(ctx, "OPORD", "   ")
	require.NoError(t, err)

	analyzer := &stubAnalyzer{mentions: []types.Mention{{TaskName: "SEIZE"}}}
	w := NewWorker(st, analyzer)
	w.Enqueue(id)
	w.Close()

	doc, err := st.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, doc.AnalysisResults)
	assert.Empty(t, doc.AnalysisResults)
	assert.Zero(t, analyzer.callCount(), "analyzer must not run for blank content")
}

func TestWorkerMissingOrder(t *testing.T) {
	st := testStore(t)

	analyzer := &stubAnalyzer{}
	w := NewWorker(st, analyzer)
	w.Enqueue(9999)
	w.Close()

	assert.Zero(t, analyzer.callCount())
}

func TestWorkerDrainsQueueOnClose(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := st.CreateOrder(ctx, fmt.Sprintf("OPORD %d", i), "content")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	analyzer := &stubAnalyzer{mentions: []types.Mention{{TaskName: "SEIZE"}}}
	w := NewWorker(st, analyzer, WithBufferSize(8))
	for _, id := range ids {
		w.Enqueue(id)
	}
	w.Close()

	for _, id := range ids {
		doc, err := st.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.Len(t, doc.AnalysisResults, 1, "order %d not analyzed before Close returned", id)
	}
}

// --- persistence retry ---

// flakyStore fails SaveAnalysis a configured number of times.
type flakyStore struct {
	Store
	mu          sync.Mutex
	failures    int
	saveCalls   int
	errorMarker string
}

func (f *flakyStore) SaveAnalysis(ctx context.Context, id int64, mentions []types.Mention) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveCalls <= f.failures {
		return fmt.Errorf("disk full (attempt %d)", f.saveCalls)
	}
	return f.Store.SaveAnalysis(ctx, id, mentions)
}

func (f *flakyStore) SaveAnalysisError(ctx context.Context, id int64, msg string) error {
	f.mu.Lock()
	f.errorMarker = msg
	f.mu.Unlock()
	return f.Store.SaveAnalysisError(ctx, id, msg)
}

func TestWorkerRetriesPersistOnce(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateOrder(ctx, "OPORD", "content")
	require.NoError(t, err)

	flaky := &flakyStore{Store: st, failures: 1}
	w := NewWorker(flaky, &stubAnalyzer{mentions: []types.Mention{{TaskName: "SEIZE"}}})
	w.Enqueue(id)
	w.Close()

	assert.Equal(t, 2, flaky.saveCalls, "want exactly one retry")
	doc, err := st.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Len(t, doc.AnalysisResults, 1)
	assert.Empty(t, doc.AnalysisError)
}

func TestWorkerRecordsErrorMarkerAfterRetry(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.CreateOrder(ctx, "OPORD", "content")
	require.NoError(t, err)

	flaky := &flakyStore{Store: st, failures: 2}
	w := NewWorker(flaky, &stubAnalyzer{mentions: []types.Mention{{TaskName: "SEIZE"}}})
	w.Enqueue(id)
	w.Close()

	assert.Equal(t, 2, flaky.saveCalls, "no further attempts after the single retry")

	doc, err := st.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, doc.AnalysisResults)
	assert.Contains(t, doc.AnalysisError, "persisting analysis")
}
