// Package etl implements component E, the single-slice join: blocks →
// transactions → receipts → logs → transfers/ENS, followed by a
// parallel fan-out to the six exporters. Grounded on
// original_source/ethetl/src/etl/mod.rs's per-slice run loop, which
// drives the same fetch-then-export sequence one slice at a time.
package etl

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/mars-etl/ethetl/internal/chainmodel"
	"github.com/mars-etl/ethetl/internal/decode"
	"github.com/mars-etl/ethetl/internal/errs"
	"github.com/mars-etl/ethetl/internal/export"
	"github.com/mars-etl/ethetl/internal/rpcfetch"
)

// Batch wires the fetchers, the transfer/ENS decoder, and the six
// exporters together for one slice.
type Batch struct {
	Blocks   *rpcfetch.BlockFetcher
	Receipts *rpcfetch.ReceiptFetcher

	BlockExporter         *export.BlockExporter
	TransactionExporter   *export.TransactionExporter
	ReceiptExporter       *export.ReceiptExporter
	LogsExporter          *export.LogsExporter
	TokenTransferExporter *export.TokenTransferExporter
	EnsExporter           *export.EnsExporter
}

// Run executes the full join-and-export sequence for slice [lo, hi)
// and returns once every exporter write has succeeded (spec §4.F: "a
// slice completes only when all of its exporter writes succeed").
func (b *Batch) Run(ctx context.Context, lo, hi uint64) error {
	blockResult, err := b.Blocks.Fetch(ctx, lo, hi)
	if err != nil {
		return err
	}

	receipts, logs, err := b.Receipts.Fetch(ctx, blockResult.TxHashes)
	if err != nil {
		return err
	}

	transfers, regs, err := dispatchLogs(logs)
	if err != nil {
		return err
	}

	type result struct {
		err error
	}
	results := make(chan result, 6)
	run := func(fn func() error) {
		go func() { results <- result{fn()} }()
	}

	run(func() error { return b.BlockExporter.Export(ctx, lo, hi, blockResult.Blocks) })
	run(func() error { return b.TransactionExporter.Export(ctx, lo, hi, blockResult.Transactions) })
	run(func() error { return b.ReceiptExporter.Export(ctx, lo, hi, receipts) })
	run(func() error { return b.LogsExporter.Export(ctx, lo, hi, logs) })
	run(func() error { return b.TokenTransferExporter.Export(ctx, lo, hi, transfers) })
	run(func() error { return b.EnsExporter.Export(ctx, lo, hi, regs) })

	var firstErr error
	for i := 0; i < 6; i++ {
		if r := <-results; r.err != nil && firstErr == nil {
			firstErr = r.err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	log.Info("slice joined", "lo", lo, "hi", hi,
		"blocks", len(blockResult.Blocks), "transactions", len(blockResult.Transactions),
		"receipts", len(receipts), "logs", len(logs),
		"transfers", len(transfers), "ens", len(regs))
	return nil
}

// dispatchLogs implements spec §4.E step 3: for each log, dispatch by
// topics[0] to the transfer/ENS decoder, accumulating results sorted
// by (block_number, log_index) (spec §4.E's ordering guarantee).
//
// A log whose topic0 (or topic count) doesn't match any known shape is
// silently skipped, mirroring the log decoder's "None for a topic0
// that doesn't match" invariant (spec §4.B). Once topic0 has
// identified a shape, a decode failure means a malformed payload for
// an identified event, not a shape mismatch: spec §7 requires that to
// abort the slice, so it is returned as an errs.Decode error rather
// than silently dropped.
func dispatchLogs(logs []chainmodel.Log) ([]chainmodel.TokenTransfer, []chainmodel.EnsNameRegistered, error) {
	const op = "etl.dispatchLogs"
	var transfers []chainmodel.TokenTransfer
	var regs []chainmodel.EnsNameRegistered

	for _, l := range logs {
		if len(l.Topics) == 0 {
			continue
		}
		switch l.Topics[0] {
		case TransferTopic:
			tr, matched, err := decodeTransfer(l)
			if err != nil {
				return nil, nil, errs.Decode(op, err)
			}
			if matched {
				transfers = append(transfers, tr)
			}
		case TransferSingleTopic:
			tr, matched, err := decodeTransferSingle(l)
			if err != nil {
				return nil, nil, errs.Decode(op, err)
			}
			if matched {
				transfers = append(transfers, tr)
			}
		case TransferBatchTopic:
			tr, matched, err := decodeTransferBatch(l)
			if err != nil {
				return nil, nil, errs.Decode(op, err)
			}
			if matched {
				transfers = append(transfers, tr)
			}
		case NameRegisteredTopic:
			reg, matched, err := decodeNameRegistered(l)
			if err != nil {
				return nil, nil, errs.Decode(op, err)
			}
			if matched {
				regs = append(regs, reg)
			}
		}
	}

	sort.Slice(transfers, func(i, j int) bool {
		if transfers[i].BlockNumber != transfers[j].BlockNumber {
			return transfers[i].BlockNumber < transfers[j].BlockNumber
		}
		return transfers[i].LogIndex < transfers[j].LogIndex
	})
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].BlockNumber != regs[j].BlockNumber {
			return regs[i].BlockNumber < regs[j].BlockNumber
		}
		return regs[i].LogIndex < regs[j].LogIndex
	})
	return transfers, regs, nil
}

// decodeTransfer handles the shared ERC-20/ERC-721 Transfer topic,
// distinguished by topic count: ERC-721 indexes tokenId (4 topics),
// ERC-20 carries value in data (3 topics). matched is false only for a
// topic count dispatchLogs shouldn't have routed here; err is non-nil
// only for a malformed payload on an otherwise-identified shape.
func decodeTransfer(l chainmodel.Log) (tr chainmodel.TokenTransfer, matched bool, err error) {
	switch len(l.Topics) {
	case 3:
		value, err := decode.DecodeU256(l.Data)
		if err != nil {
			return chainmodel.TokenTransfer{}, true, err
		}
		return tokenTransfer(chainmodel.StandardERC20, l, l.Topics[1], l.Topics[2], value, nil), true, nil
	case 4:
		tokenID := new(uint256.Int).SetBytes(l.Topics[3].Bytes())
		return tokenTransfer(chainmodel.StandardERC721, l, l.Topics[1], l.Topics[2], tokenID, nil), true, nil
	default:
		return chainmodel.TokenTransfer{}, false, nil
	}
}

func decodeTransferSingle(l chainmodel.Log) (tr chainmodel.TokenTransfer, matched bool, err error) {
	if len(l.Topics) != 4 {
		return chainmodel.TokenTransfer{}, false, nil
	}
	ts, err := decode.DecodeTransferSingle(l.Data)
	if err != nil {
		return chainmodel.TokenTransfer{}, true, err
	}
	return tokenTransfer(chainmodel.StandardERC1155Single, l, l.Topics[2], l.Topics[3], ts.ID, []*uint256.Int{ts.Value}), true, nil
}

func decodeTransferBatch(l chainmodel.Log) (tr chainmodel.TokenTransfer, matched bool, err error) {
	if len(l.Topics) != 4 {
		return chainmodel.TokenTransfer{}, false, nil
	}
	tb, err := decode.DecodeTransferBatch(l.Data)
	if err != nil {
		return chainmodel.TokenTransfer{}, true, err
	}
	if len(tb.IDs) == 0 {
		return chainmodel.TokenTransfer{}, true, fmt.Errorf("transferbatch: empty ids")
	}
	return tokenTransfer(chainmodel.StandardERC1155Batch, l, l.Topics[2], l.Topics[3], tb.IDs[0], tb.Values), true, nil
}

func decodeNameRegistered(l chainmodel.Log) (reg chainmodel.EnsNameRegistered, matched bool, err error) {
	nr, err := decode.DecodeNameRegistered(l.Data)
	if err != nil {
		return chainmodel.EnsNameRegistered{}, true, err
	}
	return chainmodel.EnsNameRegistered{
		Name:        nr.Name,
		Label:       nr.Label,
		Expires:     nr.Expires,
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.LogIndex,
	}, true, nil
}

func tokenTransfer(standard chainmodel.TokenStandard, l chainmodel.Log, from, to common.Hash, valueOrID *uint256.Int, extras []*uint256.Int) chainmodel.TokenTransfer {
	return chainmodel.TokenTransfer{
		Standard:     standard,
		TokenAddress: l.Address,
		From:         topicToAddress(from),
		To:           topicToAddress(to),
		ValueOrID:    valueOrID,
		Extras:       extras,
		BlockNumber:  l.BlockNumber,
		TxHash:       l.TxHash,
		LogIndex:     l.LogIndex,
	}
}

// topicToAddress extracts the low 20 bytes of an indexed address
// topic (addresses are left-padded to 32 bytes when indexed).
func topicToAddress(h common.Hash) common.Address {
	return common.BytesToAddress(h.Bytes()[12:])
}
