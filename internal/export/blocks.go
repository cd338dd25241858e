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

// BlockExporter writes the blocks_{lo}_{hi}.parquet file for a slice.
type BlockExporter struct {
	Storage  storage.Storage
	Counters *progress.Counters
}

// Export writes blocks, sorted ascending by number (spec §3: "within a
// slice, blocks are emitted in ascending number").
func (e *BlockExporter) Export(ctx context.Context, lo, hi uint64, blocks []chainmodel.Block) error {
	sorted := append([]chainmodel.Block(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	mem := memory.DefaultAllocator
	number := array.NewUint64Builder(mem)
	hash := array.NewStringBuilder(mem)
	parentHash := array.NewStringBuilder(mem)
	nonce := array.NewStringBuilder(mem)
	miner := array.NewStringBuilder(mem)
	difficulty := array.NewStringBuilder(mem)
	totalDifficulty := array.NewStringBuilder(mem)
	size := array.NewUint64Builder(mem)
	gasLimit := array.NewUint64Builder(mem)
	gasUsed := array.NewUint64Builder(mem)
	timestamp := array.NewUint64Builder(mem)
	txCount := array.NewUint32Builder(mem)
	defer func() {
		for _, b := range []array.Builder{number, hash, parentHash, nonce, miner, difficulty, totalDifficulty, size, gasLimit, gasUsed, timestamp, txCount} {
			b.Release()
		}
	}()

	for _, b := range sorted {
		number.Append(b.Number)
		hash.Append(b.Hash.Hex())
		parentHash.Append(b.ParentHash.Hex())
		nonce.Append(hexutilUint64(b.Nonce))
		miner.Append(b.Miner.Hex())
		difficulty.Append(b.Difficulty.Dec())
		totalDifficulty.Append(b.TotalDifficulty.Dec())
		size.Append(b.Size)
		gasLimit.Append(b.GasLimit)
		gasUsed.Append(b.GasUsed)
		timestamp.Append(b.Timestamp)
		txCount.Append(uint32(len(b.TransactionHashes)))
	}

	cols := []arrow.Array{
		number.NewArray(), hash.NewArray(), parentHash.NewArray(), nonce.NewArray(),
		miner.NewArray(), difficulty.NewArray(), totalDifficulty.NewArray(), size.NewArray(),
		gasLimit.NewArray(), gasUsed.NewArray(), timestamp.NewArray(), txCount.NewArray(),
	}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	rec := array.NewRecord(BlocksSchema, cols, int64(len(sorted)))
	defer rec.Release()

	return writeParquet(ctx, e.Storage, e.Counters, entityPath("blocks", lo, hi), BlocksSchema, rec, "blocks")
}
