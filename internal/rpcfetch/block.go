package rpcfetch

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"github.com/mars-etl/ethetl/internal/chainmodel"
	"github.com/mars-etl/ethetl/internal/errs"
	"github.com/mars-etl/ethetl/internal/progress"
)

// rpcBlock mirrors the subset of the eth_getBlockByNumber(number,
// full_tx=true) JSON response this pipeline needs.
type rpcBlock struct {
	Number          hexutil.Uint64    `json:"number"`
	Hash            common.Hash       `json:"hash"`
	ParentHash      common.Hash       `json:"parentHash"`
	Nonce           hexutil.Bytes     `json:"nonce"`
	Timestamp       hexutil.Uint64    `json:"timestamp"`
	Miner           common.Address    `json:"miner"`
	Difficulty      *hexutil.Big      `json:"difficulty"`
	TotalDifficulty *hexutil.Big      `json:"totalDifficulty"`
	GasLimit        hexutil.Uint64    `json:"gasLimit"`
	GasUsed         hexutil.Uint64    `json:"gasUsed"`
	Size            hexutil.Uint64    `json:"size"`
	Transactions    []rpcTransaction  `json:"transactions"`
}

type rpcTransaction struct {
	Hash                 common.Hash     `json:"hash"`
	BlockHash            common.Hash     `json:"blockHash"`
	BlockNumber          hexutil.Uint64  `json:"blockNumber"`
	TransactionIndex     hexutil.Uint64  `json:"transactionIndex"`
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	Input                hexutil.Bytes   `json:"input"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
}

// BlockFetcher fetches a slice of blocks by number, as spec §4.C
// describes: batched eth_getBlockByNumber calls, chunked, a missing
// block is fatal, output ordered by ascending block number.
type BlockFetcher struct {
	caller       BatchCaller
	chunkSize    int
	counters     *progress.Counters
}

// NewBlockFetcher constructs a BlockFetcher. chunkSize is the
// rpc_batch_size config value (default 50).
func NewBlockFetcher(caller BatchCaller, chunkSize int, counters *progress.Counters) *BlockFetcher {
	return &BlockFetcher{caller: caller, chunkSize: chunkSize, counters: counters}
}

// FetchResult bundles a fetched slice of blocks with the flattened,
// in-block-order transactions and transaction hashes derived from
// them.
type FetchResult struct {
	Blocks       []chainmodel.Block
	Transactions []chainmodel.Transaction
	TxHashes     []common.Hash
}

// Fetch retrieves every block number in [lo, hi) and returns them in
// ascending order along with their transactions and the concatenated,
// in-block-order list of transaction hashes across the slice.
func (f *BlockFetcher) Fetch(ctx context.Context, lo, hi uint64) (*FetchResult, error) {
	const op = "rpcfetch.BlockFetcher.Fetch"
	n := int(hi - lo)
	if n <= 0 {
		return &FetchResult{}, nil
	}
	raw := make([]rpcBlock, n)
	elems := make([]rpc.BatchElem, n)
	for i := 0; i < n; i++ {
		elems[i] = rpc.BatchElem{
			Method: "eth_getBlockByNumber",
			Args:   []interface{}{hexutil.EncodeUint64(lo + uint64(i)), true},
			Result: &raw[i],
		}
	}
	if err := submitChunked(ctx, f.caller, elems, f.chunkSize, op); err != nil {
		return nil, err
	}

	blocks := make([]chainmodel.Block, n)
	var allHashes []common.Hash
	for i, elem := range elems {
		if elem.Error != nil {
			return nil, errs.Transport(op, elem.Error)
		}
		if raw[i].Hash == (common.Hash{}) {
			return nil, errs.Missing(op, fmt.Errorf("block %d not found (finalized range expected)", lo+uint64(i)))
		}
		b, txHashes := convertBlock(&raw[i])
		blocks[i] = b
		allHashes = append(allHashes, txHashes...)
		if f.counters != nil {
			f.counters.AddBlocks(1)
			f.counters.AddTransactions(int64(len(txHashes)))
		}
	}
	log.Info("fetched blocks", "lo", lo, "hi", hi, "count", n)
	return &FetchResult{
		Blocks:       blocks,
		Transactions: TransactionsOf(raw),
		TxHashes:     allHashes,
	}, nil
}

func convertBlock(r *rpcBlock) (chainmodel.Block, []common.Hash) {
	hashes := make([]common.Hash, len(r.Transactions))
	for i, tx := range r.Transactions {
		hashes[i] = tx.Hash
	}
	b := chainmodel.Block{
		Number:            uint64(r.Number),
		Hash:              r.Hash,
		ParentHash:        r.ParentHash,
		Nonce:             bytesToUint64(r.Nonce),
		Timestamp:         uint64(r.Timestamp),
		Miner:             r.Miner,
		Difficulty:        bigToUint256(r.Difficulty),
		TotalDifficulty:   bigToUint256(r.TotalDifficulty),
		GasLimit:          uint64(r.GasLimit),
		GasUsed:           uint64(r.GasUsed),
		Size:              uint64(r.Size),
		TransactionHashes: hashes,
	}
	return b, hashes
}

func bytesToUint64(b hexutil.Bytes) uint64 {
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v
}

func bigToUint256(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return uint256.NewInt(0)
	}
	u, overflow := uint256.FromBig((*b).ToInt())
	if overflow {
		return uint256.NewInt(0)
	}
	return u
}

// TransactionsOf converts the raw transactions embedded in a fetched
// block into chainmodel.Transaction, stable-ordered by (block_number,
// index) as they arrive from the node.
func TransactionsOf(r []rpcBlock) []chainmodel.Transaction {
	var out []chainmodel.Transaction
	for _, blk := range r {
		for _, tx := range blk.Transactions {
			out = append(out, chainmodel.Transaction{
				Hash:                 tx.Hash,
				BlockHash:            tx.BlockHash,
				BlockNumber:          uint64(tx.BlockNumber),
				Index:                uint32(tx.TransactionIndex),
				From:                 tx.From,
				To:                   tx.To,
				Value:                bigToUint256(tx.Value),
				Gas:                  uint64(tx.Gas),
				GasPrice:             bigToUint256(tx.GasPrice),
				Input:                []byte(tx.Input),
				Nonce:                uint64(tx.Nonce),
				MaxFeePerGas:         optionalUint256(tx.MaxFeePerGas),
				MaxPriorityFeePerGas: optionalUint256(tx.MaxPriorityFeePerGas),
			})
		}
	}
	return out
}

func optionalUint256(b *hexutil.Big) *uint256.Int {
	if b == nil {
		return nil
	}
	return bigToUint256(b)
}
