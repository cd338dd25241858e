package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mars-etl/ethetl/internal/checkpoint"
	"github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/retry"
	"github.com/mars-etl/ethetl/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestSlices_DividesEvenly(t *testing.T) {
	s := slices(0, 99, 10)
	require.Len(t, s, 10)
	require.Equal(t, Slice{Lo: 0, Hi: 10}, s[0])
	require.Equal(t, Slice{Lo: 90, Hi: 100}, s[9])
}

func TestSlices_TruncatesTail(t *testing.T) {
	s := slices(0, 25, 10)
	require.Equal(t, []Slice{{0, 10}, {10, 20}, {20, 26}}, s)
}

func TestSlices_EmptyWhenEndBeforeStart(t *testing.T) {
	require.Empty(t, slices(10, 5, 10))
}

// recordingBatch records every [lo, hi) it is asked to run and always
// succeeds.
type recordingBatch struct {
	mu   sync.Mutex
	runs []Slice
}

func (b *recordingBatch) Run(ctx context.Context, lo, hi uint64) error {
	b.mu.Lock()
	b.runs = append(b.runs, Slice{Lo: lo, Hi: hi})
	b.mu.Unlock()
	return nil
}

func newTestPipeline(t *testing.T, start, end, batchSize uint64, workers int, batch Batch) *Pipeline {
	cfg, err := config.New(start, end, batchSize, workers, "http://node.invalid", config.ChainEth, "", config.StorageConfig{
		Type: config.StorageFs,
		Fs:   config.FsConfig{DataPath: t.TempDir()},
	})
	require.NoError(t, err)

	st := storage.NewFsStorage(t.TempDir())
	return &Pipeline{
		Config:     cfg,
		Batch:      batch,
		Checkpoint: checkpoint.NewStore(st, start),
		Retry:      retry.DefaultPolicy(),
	}
}

func TestPipeline_RunNormal_ProcessesEverySliceAndAdvancesWatermark(t *testing.T) {
	batch := &recordingBatch{}
	p := newTestPipeline(t, 0, 59, 10, 3, batch)

	err := p.RunNormal(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.runs, 6)
	require.Equal(t, uint64(60), p.Checkpoint.Watermark())
}

func TestPipeline_RunNormal_StopsOnFirstFatalError(t *testing.T) {
	cfg, err := config.New(0, 29, 10, 1, "http://node.invalid", config.ChainEth, "", config.StorageConfig{
		Type: config.StorageFs,
		Fs:   config.FsConfig{DataPath: t.TempDir()},
	})
	require.NoError(t, err)

	st := storage.NewFsStorage(t.TempDir())
	p := &Pipeline{
		Config:     cfg,
		Batch:      failingBatch{failAt: Slice{Lo: 10, Hi: 20}},
		Checkpoint: checkpoint.NewStore(st, 0),
		Retry:      retry.DefaultPolicy(),
	}

	err = p.RunNormal(context.Background())
	require.Error(t, err)
	require.Equal(t, uint64(10), p.Checkpoint.Watermark())
}

type failingBatch struct {
	failAt Slice
}

func (b failingBatch) Run(ctx context.Context, lo, hi uint64) error {
	if lo == b.failAt.Lo && hi == b.failAt.Hi {
		return errFatal
	}
	return nil
}

var errFatal = &testError{"fatal slice failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

// slowBatch blocks until either its fixed delay elapses or the
// context is cancelled, honoring the cooperative-cancellation
// contract a real fetch/export round trip would.
type slowBatch struct{ delay time.Duration }

func (b slowBatch) Run(ctx context.Context, lo, hi uint64) error {
	select {
	case <-time.After(b.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPipeline_RunNormal_RespectsCancellation(t *testing.T) {
	p := newTestPipeline(t, 0, 99, 10, 1, slowBatch{delay: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := p.RunNormal(ctx)
	require.Error(t, err)
}
