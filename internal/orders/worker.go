// Package orders triggers tactical analysis whenever an order
// document's content changes and persists the resulting annotation
// list back onto the document. Runs are detached from the write that
// caused them: callers enqueue and move on, and tolerate the
// annotation field being stale until the background run finishes.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 10 * time.Second
)

// Analyzer recognizes task mentions in order text.
type Analyzer interface {
	Text(ctx context.Context, text string) []types.Mention
}

// Store is the subset of order persistence the worker needs.
type Store interface {
	GetOrder(ctx context.Context, id int64) (*types.OrderDocument, error)
	SaveAnalysis(ctx context.Context, id int64, mentions []types.Mention) error
	SaveAnalysisError(ctx context.Context, id int64, msg string) error
}

// Option configures a Worker.
type Option func(*Worker)

// WithBufferSize sets the job channel capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(w *Worker) { w.bufSize = n }
}

// Worker runs analysis jobs from a buffered channel on a single
// background goroutine. Successive updates to the same order are
// last-write-wins on the annotation field: jobs run in enqueue order
// and each overwrites the previous result, with no stronger ordering
// guarantee.
type Worker struct {
	store     Store
	analyzer  Analyzer
	ch        chan int64
	done      chan struct{}
	bufSize   int
	closeOnce sync.Once
}

// NewWorker starts the background goroutine immediately.
func NewWorker(st Store, analyzer Analyzer, opts ...Option) *Worker {
	w := &Worker{
		store:    st,
		analyzer: analyzer,
		bufSize:  defaultBufferSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ch = make(chan int64, w.bufSize)
	w.done = make(chan struct{})
	go w.run()
	return w
}

// Enqueue submits an order for analysis. Callers do not wait for the
// run to complete; Enqueue only blocks when the job buffer is full.
func (w *Worker) Enqueue(id int64) {
	w.ch <- id
}

// Close stops accepting jobs, drains the queue (with a timeout), and
// waits for the worker goroutine to exit.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.ch)
		select {
		case <-w.done:
		case <-time.After(defaultDrainTimeout):
			slog.Warn("analysis worker drain timed out")
		}
	})
}

func (w *Worker) run() {
	defer close(w.done)
	for id := range w.ch {
		w.process(context.Background(), id)
	}
}

// process runs one analysis job. All failures are absorbed here: the
// worker never stops over a single bad job.
func (w *Worker) process(ctx context.Context, id int64) {
	doc, err := w.store.GetOrder(ctx, id)
	if err != nil {
		slog.Error("fetching order for analysis failed", "order_id", id, "error", err)
		w.persistError(ctx, id, fmt.Sprintf("fetching order: %v", err))
		return
	}
	if doc == nil {
		slog.Error("order not found for analysis, skipping", "order_id", id)
		return
	}

	// Blank content short-circuits to an empty annotation list without
	// invoking recognition.
	if strings.TrimSpace(doc.Content) == "" {
		slog.Info("order has no content, storing empty analysis", "order_id", id)
		w.persist(ctx, id, []types.Mention{})
		return
	}

	mentions := w.analyzer.Text(ctx, doc.Content)
	slog.Info("analysis complete", "order_id", id, "mentions", len(mentions))
	w.persist(ctx, id, mentions)
}

// persist writes the annotation list, retrying the write exactly once.
// When both attempts fail, a durable error marker is recorded instead
// of losing the update silently.
func (w *Worker) persist(ctx context.Context, id int64, mentions []types.Mention) {
	err := w.store.SaveAnalysis(ctx, id, mentions)
	if err != nil {
		slog.Warn("persisting analysis failed, retrying once", "order_id", id, "error", err)
		err = w.store.SaveAnalysis(ctx, id, mentions)
	}
	if err != nil {
		slog.Error("persisting analysis failed after retry", "order_id", id, "error", err)
		w.persistError(ctx, id, fmt.Sprintf("persisting analysis: %v", err))
	}
}

// persistError records the error marker, best effort.
func (w *Worker) persistError(ctx context.Context, id int64, msg string) {
	if err := w.store.SaveAnalysisError(ctx, id, msg); err != nil {
		slog.Error("recording analysis error marker failed", "order_id", id, "error", err)
	}
}
