// Package rpcfetch implements the batched JSON-RPC fetchers of spec
// §4.C: BlockFetcher and ReceiptFetcher, both built on the same
// chunked batch-submission transport. Grounded on the teacher's
// github.com/ethereum/go-ethereum/rpc package (rpc.BatchElem /
// Client.BatchCallContext), the exact API the pack's
// op-service/sources/receipts.go uses for the same purpose.
package rpcfetch

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mars-etl/ethetl/internal/errs"
)

// BatchCaller is the one surface rpcfetch consumes from an RPC
// client: submit N requests, get one round trip, N ordered results.
// *rpc.Client satisfies this directly.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// submitChunked passes elems to caller.BatchCallContext in chunks of
// size chunkSize, in order, the same "one HTTP round trip per chunk"
// discipline the original's web3 Batch transport uses.
func submitChunked(ctx context.Context, caller BatchCaller, elems []rpc.BatchElem, chunkSize int, op string) error {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	for start := 0; start < len(elems); start += chunkSize {
		end := start + chunkSize
		if end > len(elems) {
			end = len(elems)
		}
		if err := caller.BatchCallContext(ctx, elems[start:end]); err != nil {
			return errs.Transport(op, err)
		}
	}
	return nil
}
