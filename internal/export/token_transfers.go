package export

import (
	"context"
	"sort"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/mars-etl/ethetl/internal/chainmodel"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/mars-etl/ethetl/internal/storage"
)

// TokenTransferExporter writes the token_transfers_{lo}_{hi}.parquet
// file.
type TokenTransferExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes token transfers sorted by (block_number, log_index).
func (e *TokenTransferExporter) Export(ctx context.Context, lo, hi uint64, transfers []chainmodel.TokenTransfer) error {
	sorted := append([]chainmodel.TokenTransfer(nil), transfers...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].LogIndex < sorted[j].LogIndex
	})

	mem := memory.DefaultAllocator
	standard := array.NewUint8Builder(mem)
	tokenAddress := array.NewStringBuilder(mem)
	from := array.NewStringBuilder(mem)
	to := array.NewStringBuilder(mem)
	valueOrID := array.NewStringBuilder(mem)
	extras := array.NewListBuilder(mem, arrow.BinaryTypes.String)
	extrasValues := extras.ValueBuilder().(*array.StringBuilder)
	blockNumber := array.NewUint64Builder(mem)
	txHash := array.NewStringBuilder(mem)
	logIndex := array.NewUint32Builder(mem)
	builders := []array.Builder{standard, tokenAddress, from, to, valueOrID, extras, blockNumber, txHash, logIndex}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, tr := range sorted {
		standard.Append(uint8(tr.Standard))
		tokenAddress.Append(tr.TokenAddress.Hex())
		from.Append(tr.From.Hex())
		to.Append(tr.To.Hex())
		valueOrID.Append(tr.ValueOrID.Dec())
		if len(tr.Extras) == 0 {
			extras.AppendNull()
		} else {
			extras.Append(true)
			for _, v := range tr.Extras {
				extrasValues.Append(v.Dec())
			}
		}
		blockNumber.Append(tr.BlockNumber)
		txHash.Append(tr.TxHash.Hex())
		logIndex.Append(tr.LogIndex)
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	rec := array.NewRecord(TokenTransfersSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("token_transfers", lo, hi), TokenTransfersSchema, rec, "token_transfers")
}
