// Package progress implements component H: atomic counters updated by
// fetchers and exporters, plus a periodic rate/ETA logger. There is no
// lock — every field is a dedicated atomic, matching spec §5's "Shared
// resources: the progress counters (atomic increments, no lock)".
package progress

import (
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Counters is the shared, slice-independent set of running totals.
type Counters struct {
	blocks       atomic.Int64
	transactions atomic.Int64
	receipts     atomic.Int64
	logs         atomic.Int64
	bytesWritten atomic.Int64
}

func (c *Counters) AddBlocks(n int64)       { c.blocks.Add(n) }
func (c *Counters) AddTransactions(n int64) { c.transactions.Add(n) }
func (c *Counters) AddReceipts(n int64)     { c.receipts.Add(n) }
func (c *Counters) AddLogs(n int64)         { c.logs.Add(n) }
func (c *Counters) AddBytesWritten(n int64) { c.bytesWritten.Add(n) }

func (c *Counters) Blocks() int64       { return c.blocks.Load() }
func (c *Counters) Transactions() int64 { return c.transactions.Load() }
func (c *Counters) Receipts() int64     { return c.receipts.Load() }
func (c *Counters) Logs() int64         { return c.logs.Load() }
func (c *Counters) BytesWritten() int64 { return c.bytesWritten.Load() }

// Logger periodically prints a rate/ETA line derived from the
// watermark read via WatermarkFunc against the configured end block.
type Logger struct {
	Counters     *Counters
	Interval     time.Duration
	End          uint64
	WatermarkFunc func() uint64

	start time.Time
}

// Run blocks, printing a progress line every Interval, until stop is
// closed. It is meant to be launched in its own goroutine.
func (l *Logger) Run(stop <-chan struct{}) {
	if l.Interval <= 0 {
		return
	}
	l.start = time.Now()
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.logOnce()
		}
	}
}

func (l *Logger) logOnce() {
	elapsed := time.Since(l.start)
	blocks := l.Counters.Blocks()
	rate := float64(0)
	if elapsed.Seconds() > 0 {
		rate = float64(blocks) / elapsed.Seconds()
	}
	var eta time.Duration
	if l.WatermarkFunc != nil && rate > 0 {
		w := l.WatermarkFunc()
		if l.End > w {
			eta = time.Duration(float64(l.End-w)/rate) * time.Second
		}
	}
	log.Info("progress",
		"blocks", blocks,
		"transactions", l.Counters.Transactions(),
		"receipts", l.Counters.Receipts(),
		"logs", l.Counters.Logs(),
		"bytes_written", l.Counters.BytesWritten(),
		"blocks_per_sec", rate,
		"eta", eta,
	)
}
