// Command ethetl wires Config → Env → Pipeline and runs one sync.
// Flag parsing itself is an external collaborator per spec §1; this
// file only translates urfave/cli flags into the immutable Config the
// core consumes, the same front-end library the teacher's own cmd/
// binaries build on.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mars-etl/ethetl/internal/checkpoint"
	"github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/env"
	"github.com/mars-etl/ethetl/internal/etl"
	"github.com/mars-etl/ethetl/internal/export"
	"github.com/mars-etl/ethetl/internal/pipeline"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/mars-etl/ethetl/internal/retry"
	"github.com/mars-etl/ethetl/internal/rpcfetch"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ethetl",
		Usage: "extract a block range to columnar Parquet",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "start", Required: true},
			&cli.Uint64Flag{Name: "end", Required: true},
			&cli.Uint64Flag{Name: "batch-size", Value: 50},
			&cli.IntFlag{Name: "workers", Value: 4},
			&cli.StringFlag{Name: "rpc-url", Required: true},
			&cli.StringFlag{Name: "output", Value: "."},
			&cli.StringFlag{Name: "storage", Value: "fs"},
			&cli.BoolFlag{Name: "stream"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		gethlog.Error("ethetl exited with error", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	storageType, err := config.ParseStorageType(c.String("storage"))
	if err != nil {
		return err
	}

	start := c.Uint64("start")
	cfg, err := config.New(
		start, c.Uint64("end"), c.Uint64("batch-size"),
		c.Int("workers"), c.String("rpc-url"), config.ChainEth,
		c.String("output"),
		config.StorageConfig{Type: storageType, Fs: config.FsConfig{DataPath: c.String("output")}},
	)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	e, err := env.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ethetl: %w", err)
	}
	defer e.Close()

	if existing, err := checkpoint.Load(ctx, e.Storage); err != nil {
		return err
	} else if existing != nil {
		gethlog.Info("resuming from checkpoint", "start", existing.Start, "end", existing.End)
		start = existing.End
	}

	store := checkpoint.NewStore(e.Storage, start)
	policy := retry.DefaultPolicy()
	policy.Notify = func(err error, elapsed time.Duration) {
		gethlog.Warn("retrying after error", "err", err, "elapsed", elapsed)
	}

	batch := &etl.Batch{
		Blocks:                rpcfetch.NewBlockFetcher(e.RPC, cfg.RPCBatchSize, e.Counters),
		Receipts:              rpcfetch.NewReceiptFetcher(e.RPC, cfg.RPCBatchSize, e.Counters),
		BlockExporter:         &export.BlockExporter{Storage: e.Storage, Counters: e.Counters},
		TransactionExporter:   &export.TransactionExporter{Storage: e.Storage, Counters: e.Counters},
		ReceiptExporter:       &export.ReceiptExporter{Storage: e.Storage, Counters: e.Counters},
		LogsExporter:          &export.LogsExporter{Storage: e.Storage, Counters: e.Counters},
		TokenTransferExporter: &export.TokenTransferExporter{Storage: e.Storage, Counters: e.Counters},
		EnsExporter:           &export.EnsExporter{Storage: e.Storage, Counters: e.Counters},
	}

	p := &pipeline.Pipeline{
		Config:     cfg,
		Batch:      batch,
		Checkpoint: store,
		Retry:      policy,
		Counters:   e.Counters,
		LatestBlock: func(ctx context.Context) (uint64, error) {
			var head rpc.BlockNumber
			if err := e.RPC.CallContext(ctx, &head, "eth_blockNumber"); err != nil {
				return 0, err
			}
			return uint64(head), nil
		},
	}

	stop := make(chan struct{})
	defer close(stop)
	logger := &progress.Logger{
		Counters:      e.Counters,
		Interval:      time.Duration(cfg.ProgressInterval) * time.Second,
		End:           cfg.End,
		WatermarkFunc: store.Watermark,
	}
	go logger.Run(stop)

	if c.Bool("stream") {
		return p.RunStream(ctx)
	}
	return p.RunNormal(ctx)
}
