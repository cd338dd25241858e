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

// EnsExporter writes the ens_{lo}_{hi}.parquet file.
type EnsExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes ENS name registrations sorted by (block_number, log_index).
func (e *EnsExporter) Export(ctx context.Context, lo, hi uint64, regs []chainmodel.EnsNameRegistered) error {
	sorted := append([]chainmodel.EnsNameRegistered(nil), regs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		return sorted[i].LogIndex < sorted[j].LogIndex
	})

	mem := memory.DefaultAllocator
	name := array.NewStringBuilder(mem)
	label := array.NewStringBuilder(mem)
	expires := array.NewUint64Builder(mem)
	txHash := array.NewStringBuilder(mem)
	blockNumber := array.NewUint64Builder(mem)
	logIndex := array.NewUint32Builder(mem)
	builders := []array.Builder{name, label, expires, txHash, blockNumber, logIndex}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, r := range sorted {
		name.Append(r.Name)
		label.Append(r.Label.Dec())
		expires.Append(r.Expires)
		txHash.Append(r.TxHash.Hex())
		blockNumber.Append(r.BlockNumber)
		logIndex.Append(r.LogIndex)
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

	rec := array.NewRecord(EnsSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("ens", lo, hi), EnsSchema, rec, "ens")
}
