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

// ReceiptExporter writes the receipts_{lo}_{hi}.parquet file.
type ReceiptExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes receipts, sorted by (block_number, tx_index).
func (e *ReceiptExporter) Export(ctx context.Context, lo, hi uint64, receipts []chainmodel.Receipt) error {
	sorted := append([]chainmodel.Receipt(nil), receipts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].TxIndex < sorted[j].TxIndex
	})

	mem := memory.DefaultAllocator
	txHash := array.NewStringBuilder(mem)
	txIndex := array.NewUint32Builder(mem)
	blockNumber := array.NewUint64Builder(mem)
	cumulativeGasUsed := array.NewUint64Builder(mem)
	gasUsed := array.NewUint64Builder(mem)
	contractAddress := array.NewStringBuilder(mem)
	status := array.NewUint8Builder(mem)
	builders := []array.Builder{txHash, txIndex, blockNumber, cumulativeGasUsed, gasUsed, contractAddress, status}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, r := range sorted {
		txHash.Append(r.TxHash.Hex())
		txIndex.Append(r.TxIndex)
		blockNumber.Append(r.BlockNumber)
		cumulativeGasUsed.Append(r.CumulativeGasUsed)
		gasUsed.Append(r.GasUsed)
		if r.ContractAddress != nil {
			contractAddress.Append(r.ContractAddress.Hex())
		} else {
			contractAddress.AppendNull()
		}
		status.Append(r.Status)
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

	rec := array.NewRecord(ReceiptsSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("receipts", lo, hi), ReceiptsSchema, rec, "receipts")
}
