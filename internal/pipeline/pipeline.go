// Package pipeline implements component F: partitioning a block range
// into fixed-size slices, scheduling them over a bounded worker pool,
// driving each slice's fetch/export join through the retry policy, and
// committing the checkpoint watermark as slices complete. Grounded on
// original_source/ethetl/src/etl/mod.rs's run loop (partition, spawn,
// commit) and on other_examples/ worker-pool usage for the bounded
// concurrency primitive itself: github.com/gammazero/workerpool, the
// same pool type the teacher's go.mod already carries transitively.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gammazero/workerpool"
	"github.com/mars-etl/ethetl/internal/checkpoint"
	"github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/mars-etl/ethetl/internal/retry"
)

// Slice is a half-open block range [Lo, Hi) scheduled as one unit of
// work.
type Slice struct {
	Lo, Hi uint64
}

// Batch is the one surface the pipeline consumes from the join stage
// (component E): run the full fetch/decode/export sequence for a
// slice. *etl.Batch satisfies this directly; tests substitute a fake.
type Batch interface {
	Run(ctx context.Context, lo, hi uint64) error
}

// Pipeline drives the partition-schedule-checkpoint loop of spec §4.F.
// Batch is reused across workers: its fetchers and exporters hold no
// per-slice mutable state beyond the shared, atomic progress counters.
type Pipeline struct {
	Config     *config.Config
	Batch      Batch
	Checkpoint *checkpoint.Store
	Retry      *retry.Policy
	Counters   *progress.Counters

	// PollInterval is how often Stream mode polls LatestBlock while
	// waiting for new finalized blocks to extend the range.
	PollInterval time.Duration
	// LatestBlock returns the chain's current finalized head, used only
	// by Stream mode to extend end.
	LatestBlock func(ctx context.Context) (uint64, error)
}

// slices partitions [start, end] inclusive into contiguous, half-open
// slices of size batchSize, truncating the tail per spec §3.
func slices(start, end, batchSize uint64) []Slice {
	if end < start {
		return nil
	}
	var out []Slice
	for lo := start; lo <= end; lo += batchSize {
		hi := lo + batchSize
		if hi > end+1 {
			hi = end + 1
		}
		out = append(out, Slice{Lo: lo, Hi: hi})
		if hi == end+1 {
			break
		}
	}
	return out
}

// RunNormal processes [p.Config.Start, p.Config.End] once and returns
// when every slice has completed or the context is cancelled.
func (p *Pipeline) RunNormal(ctx context.Context) error {
	return p.run(ctx, p.Config.Start, p.Config.End, false)
}

// RunStream repeatedly extends the range by polling LatestBlock,
// processing newly available slices as they appear, until ctx is
// cancelled.
func (p *Pipeline) RunStream(ctx context.Context) error {
	return p.run(ctx, p.Config.Start, p.Config.End, true)
}

func (p *Pipeline) run(ctx context.Context, start, end uint64, stream bool) error {
	wp := workerpool.New(p.Config.WorkerCount)

	var (
		mu       sync.Mutex
		firstErr error
	)
	recordErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	hasErr := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	next := start
	poll := p.PollInterval
	if poll <= 0 {
		poll = 5 * time.Second
	}

	for {
		if ctx.Err() != nil {
			break
		}
		if hasErr() {
			break
		}
		if next > end {
			if !stream {
				break
			}
			newEnd, err := p.waitForExtension(ctx, end, poll)
			if err != nil {
				recordErr(err)
				break
			}
			end = newEnd
			continue
		}

		for _, s := range slices(next, end, p.Config.BatchSize) {
			if ctx.Err() != nil || hasErr() {
				break
			}
			s := s
			wp.Submit(func() {
				if ctx.Err() != nil {
					return
				}
				err := p.Retry.Do(ctx, func(ctx context.Context) error {
					return p.Batch.Run(ctx, s.Lo, s.Hi)
				})
				if err != nil {
					recordErr(err)
					return
				}
				if _, err := p.Checkpoint.Complete(ctx, s.Lo, s.Hi); err != nil {
					recordErr(err)
				}
			})
		}
		next = end + 1
		if !stream {
			break
		}
	}

	wp.StopWait()
	if err := ctx.Err(); err != nil && !hasErr() {
		log.Info("pipeline cancelled", "watermark", p.Checkpoint.Watermark())
		return err
	}
	return firstErr
}

// waitForExtension polls LatestBlock every interval until the chain
// head has advanced past end, or ctx is cancelled.
func (p *Pipeline) waitForExtension(ctx context.Context, end uint64, interval time.Duration) (uint64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
			head, err := p.LatestBlock(ctx)
			if err != nil {
				return 0, err
			}
			if head > end {
				return head, nil
			}
		}
	}
}
