// Package export implements component D: one exporter per entity,
// each converting an in-memory slice into a columnar Arrow record and
// writing it as a single Snappy-compressed Parquet file named
// "{entity}_{lo}_{hi}.parquet". Grounded on original_source's
// exporters/eth/mod.rs write_file(ctx, path, schema, columns, msg)
// shape; arrow2's {Array, Chunk, Schema} triple is the direct Rust
// analogue of this package's {arrow.Record, *arrow.Schema} pair from
// github.com/apache/arrow/go/v14.
package export

import "github.com/apache/arrow/go/v14/arrow"

var listOfString = arrow.ListOf(arrow.BinaryTypes.String)

// BlocksSchema is spec §4.D's blocks entity schema.
var BlocksSchema = arrow.NewSchema([]arrow.Field{
	{Name: "number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "hash", Type: arrow.BinaryTypes.String},
	{Name: "parent_hash", Type: arrow.BinaryTypes.String},
	{Name: "nonce", Type: arrow.BinaryTypes.String},
	{Name: "miner", Type: arrow.BinaryTypes.String},
	{Name: "difficulty", Type: arrow.BinaryTypes.String},
	{Name: "total_difficulty", Type: arrow.BinaryTypes.String},
	{Name: "size", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "gas_limit", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "gas_used", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "timestamp", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "transaction_count", Type: arrow.PrimitiveTypes.Uint32},
}, nil)

// TransactionsSchema is spec §4.D's transactions entity schema.
var TransactionsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "hash", Type: arrow.BinaryTypes.String},
	{Name: "nonce", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "block_hash", Type: arrow.BinaryTypes.String},
	{Name: "block_number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "transaction_index", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "from", Type: arrow.BinaryTypes.String},
	{Name: "to", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "value", Type: arrow.BinaryTypes.String},
	{Name: "gas", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "gas_price", Type: arrow.BinaryTypes.String},
	{Name: "input", Type: arrow.BinaryTypes.String},
	{Name: "max_fee_per_gas", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "max_priority_fee_per_gas", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// ReceiptsSchema is spec §4.D's receipts entity schema.
var ReceiptsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "tx_hash", Type: arrow.BinaryTypes.String},
	{Name: "tx_index", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "block_number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "cumulative_gas_used", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "gas_used", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "contract_address", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "status", Type: arrow.PrimitiveTypes.Uint8},
}, nil)

// LogsSchema is spec §4.D's logs entity schema.
var LogsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "block_number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "tx_hash", Type: arrow.BinaryTypes.String},
	{Name: "tx_index", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "log_index", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "address", Type: arrow.BinaryTypes.String},
	{Name: "topics", Type: listOfString},
	{Name: "data", Type: arrow.BinaryTypes.String},
}, nil)

// TokenTransfersSchema is spec §4.D's token_transfers entity schema.
var TokenTransfersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "token_standard", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "token_address", Type: arrow.BinaryTypes.String},
	{Name: "from", Type: arrow.BinaryTypes.String},
	{Name: "to", Type: arrow.BinaryTypes.String},
	{Name: "value_or_id", Type: arrow.BinaryTypes.String},
	{Name: "extras", Type: listOfString},
	{Name: "block_number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "tx_hash", Type: arrow.BinaryTypes.String},
	{Name: "log_index", Type: arrow.PrimitiveTypes.Uint32},
}, nil)

// EnsSchema is spec §4.D's ens entity schema.
var EnsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "label", Type: arrow.BinaryTypes.String},
	{Name: "expires", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "tx_hash", Type: arrow.BinaryTypes.String},
	{Name: "block_number", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "log_index", Type: arrow.PrimitiveTypes.Uint32},
}, nil)
