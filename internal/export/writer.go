package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mars-etl/ethetl/internal/errs"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/mars-etl/ethetl/internal/storage"
)

var writerProps = parquet.NewWriterProperties(
	parquet.WithCompression(compress.Codecs.Snappy),
	parquet.WithDictionaryDefault(true),
)

var arrowWriterProps = pqarrow.DefaultWriterProps()

// writeParquet serializes rec to Parquet and writes it to path,
// mirroring original_source/ethetl/src/exporters/eth/mod.rs
// write_file: log first, then write, then surface a storage error as
// retryable-once-then-fatal for the slice (spec §7).
func writeParquet(ctx context.Context, st storage.Storage, counters *progress.Counters, path string, schema *arrow.Schema, rec arrow.Record, msg string) error {
	const op = "export.writeParquet"
	log.Info("write", "entity", msg, "path", path)

	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(table, &buf, rec.NumRows(), writerProps, arrowWriterProps); err != nil {
		return errs.Storage(op, fmt.Errorf("encode %s parquet: %w", msg, err))
	}
	if err := st.Put(ctx, path, buf.Bytes()); err != nil {
		return errs.Storage(op, fmt.Errorf("put %s: %w", msg, err))
	}
	if counters != nil {
		counters.AddBytesWritten(int64(buf.Len()))
	}
	return nil
}

func entityPath(entity string, lo, hi uint64) string {
	return fmt.Sprintf("%s/%s_%d_%d.parquet", entity, entity, lo, hi)
}
