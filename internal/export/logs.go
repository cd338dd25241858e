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

// LogsExporter writes the logs_{lo}_{hi}.parquet file.
type LogsExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes logs sorted by (block_number, tx_index, log_index),
// the strictly-increasing global ordering invariant of spec §3.
func (e *LogsExporter) Export(ctx context.Context, lo, hi uint64, logs []chainmodel.Log) error {
	sorted := append([]chainmodel.Log(nil), logs...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber < b.BlockNumber
		}
		if a.TxIndex != b.TxIndex {
			return a.TxIndex < b.TxIndex
		}
		return a.LogIndex < b.LogIndex
	})

	mem := memory.DefaultAllocator
	blockNumber := array.NewUint64Builder(mem)
	txHash := array.NewStringBuilder(mem)
	txIndex := array.NewUint32Builder(mem)
	logIndex := array.NewUint32Builder(mem)
	address := array.NewStringBuilder(mem)
	topics := array.NewListBuilder(mem, arrow.BinaryTypes.String)
	topicValues := topics.ValueBuilder().(*array.StringBuilder)
	data := array.NewStringBuilder(mem)
	builders := []array.Builder{blockNumber, txHash, txIndex, logIndex, address, topics, data}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, l := range sorted {
		blockNumber.Append(l.BlockNumber)
		txHash.Append(l.TxHash.Hex())
		txIndex.Append(l.TxIndex)
		logIndex.Append(l.LogIndex)
		address.Append(l.Address.Hex())
		topics.Append(true)
		for _, t := range l.Topics {
			topicValues.Append(t.Hex())
		}
		data.Append(hexBytes(l.Data))
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

	rec := array.NewRecord(LogsSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("logs", lo, hi), LogsSchema, rec, "logs")
}
