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

// TransactionExporter writes the transactions_{lo}_{hi}.parquet file.
type TransactionExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes transactions, sorted by (block_number, index) per
// spec §3's ordering invariant.
func (e *TransactionExporter) Export(ctx context.Context, lo, hi uint64, txs []chainmodel.Transaction) error {
	sorted := append([]chainmodel.Transaction(nil), txs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].Index < sorted[j].Index
	})

	mem := memory.DefaultAllocator
	hash := array.NewStringBuilder(mem)
	nonce := array.NewUint64Builder(mem)
	blockHash := array.NewStringBuilder(mem)
	blockNumber := array.NewUint64Builder(mem)
	txIndex := array.NewUint32Builder(mem)
	from := array.NewStringBuilder(mem)
	to := array.NewStringBuilder(mem)
	value := array.NewStringBuilder(mem)
	gas := array.NewUint64Builder(mem)
	gasPrice := array.NewStringBuilder(mem)
	input := array.NewStringBuilder(mem)
	maxFee := array.NewStringBuilder(mem)
	maxPriorityFee := array.NewStringBuilder(mem)
	builders := []array.Builder{hash, nonce, blockHash, blockNumber, txIndex, from, to, value, gas, gasPrice, input, maxFee, maxPriorityFee}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, tx := range sorted {
		hash.Append(tx.Hash.Hex())
		nonce.Append(tx.Nonce)
		blockHash.Append(tx.BlockHash.Hex())
		blockNumber.Append(tx.BlockNumber)
		txIndex.Append(tx.Index)
		from.Append(tx.From.Hex())
		if tx.To != nil {
			to.Append(tx.To.Hex())
		} else {
			to.AppendNull()
		}
		value.Append(tx.Value.Dec())
		gas.Append(tx.Gas)
		gasPrice.Append(tx.GasPrice.Dec())
		input.Append(hexBytes(tx.Input))
		appendOptionalDec(maxFee, tx.MaxFeePerGas)
		appendOptionalDec(maxPriorityFee, tx.MaxPriorityFeePerGas)
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

	rec := array.NewRecord(TransactionsSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("transactions", lo, hi), TransactionsSchema, rec, "transactions")
}
