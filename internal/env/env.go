// Package env resolves the "Monolithic ContextRef" design note: rather
// than threading a single god-object through every call, Env bundles
// the handful of long-lived, run-scoped dependencies (config, storage,
// RPC client, counters) that every component needs, and is passed
// explicitly by reference to whatever constructs the pipeline.
package env

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/mars-etl/ethetl/internal/storage"
)

// Env is the run-scoped set of shared handles. None of its fields are
// ever reassigned after New returns.
type Env struct {
	Config   *config.Config
	Storage  storage.Storage
	RPC      *rpc.Client
	Counters *progress.Counters
}

// New dials the configured RPC endpoint and constructs the configured
// storage backend, returning a ready-to-use Env.
func New(ctx context.Context, cfg *config.Config) (*Env, error) {
	client, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	st, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return &Env{
		Config:   cfg,
		Storage:  st,
		RPC:      client,
		Counters: &progress.Counters{},
	}, nil
}

// Close releases the RPC connection.
func (e *Env) Close() {
	e.RPC.Close()
}
