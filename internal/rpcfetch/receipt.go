package rpcfetch

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mars-etl/ethetl/internal/chainmodel"
	"github.com/mars-etl/ethetl/internal/errs"
	"github.com/mars-etl/ethetl/internal/progress"
)

// rpcReceipt mirrors the eth_getTransactionReceipt JSON response.
type rpcReceipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Status            *hexutil.Uint64 `json:"status"`
	Logs              []rpcLog        `json:"logs"`
}

type rpcLog struct {
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	TransactionHash  common.Hash    `json:"transactionHash"`
	TransactionIndex hexutil.Uint64 `json:"transactionIndex"`
	LogIndex         hexutil.Uint64 `json:"logIndex"`
	Address          common.Address `json:"address"`
	Topics           []common.Hash  `json:"topics"`
	Data             hexutil.Bytes  `json:"data"`
}

// ReceiptFetcher fetches receipts for a set of transaction hashes, per
// spec §4.C: a null receipt is fatal, output aligned to input order so
// that receipts[i].TxHash == hashes[i].
type ReceiptFetcher struct {
	caller    BatchCaller
	chunkSize int
	counters  *progress.Counters
}

// NewReceiptFetcher constructs a ReceiptFetcher.
func NewReceiptFetcher(caller BatchCaller, chunkSize int, counters *progress.Counters) *ReceiptFetcher {
	return &ReceiptFetcher{caller: caller, chunkSize: chunkSize, counters: counters}
}

// Fetch retrieves a receipt for every hash, in input order, and
// returns the flattened logs across all receipts in
// (block_number, tx_index, log_index) order (the natural ascending
// order the node already emits them in per transaction).
func (f *ReceiptFetcher) Fetch(ctx context.Context, hashes []common.Hash) ([]chainmodel.Receipt, []chainmodel.Log, error) {
	const op = "rpcfetch.ReceiptFetcher.Fetch"
	n := len(hashes)
	if n == 0 {
		return nil, nil, nil
	}
	raw := make([]*rpcReceipt, n)
	elems := make([]rpc.BatchElem, n)
	for i, h := range hashes {
		elems[i] = rpc.BatchElem{
			Method: "eth_getTransactionReceipt",
			Args:   []interface{}{h},
			Result: &raw[i],
		}
	}
	if err := submitChunked(ctx, f.caller, elems, f.chunkSize, op); err != nil {
		return nil, nil, err
	}

	receipts := make([]chainmodel.Receipt, n)
	var allLogs []chainmodel.Log
	for i, elem := range elems {
		if elem.Error != nil {
			return nil, nil, errs.Transport(op, elem.Error)
		}
		if raw[i] == nil {
			return nil, nil, errs.Missing(op, fmt.Errorf("receipt for tx %s is null (finalized range expected)", hashes[i].Hex()))
		}
		r, logs := convertReceipt(raw[i])
		if r.TxHash != hashes[i] {
			return nil, nil, errs.Missing(op, fmt.Errorf("receipt tx hash %s does not match requested hash %s", r.TxHash.Hex(), hashes[i].Hex()))
		}
		receipts[i] = r
		allLogs = append(allLogs, logs...)
		if f.counters != nil {
			f.counters.AddReceipts(1)
			f.counters.AddLogs(int64(len(logs)))
		}
	}
	log.Info("fetched receipts", "count", n)
	return receipts, allLogs, nil
}

func convertReceipt(r *rpcReceipt) (chainmodel.Receipt, []chainmodel.Log) {
	var status uint8
	if r.Status != nil {
		status = uint8(*r.Status)
	}
	logs := make([]chainmodel.Log, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = chainmodel.Log{
			BlockNumber: uint64(l.BlockNumber),
			TxHash:      l.TransactionHash,
			TxIndex:     uint32(l.TransactionIndex),
			LogIndex:    uint32(l.LogIndex),
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        []byte(l.Data),
		}
	}
	return chainmodel.Receipt{
		TxHash:            r.TransactionHash,
		BlockNumber:       uint64(r.BlockNumber),
		TxIndex:           uint32(r.TransactionIndex),
		CumulativeGasUsed: uint64(r.CumulativeGasUsed),
		GasUsed:           uint64(r.GasUsed),
		ContractAddress:   r.ContractAddress,
		Status:            status,
		Logs:              logs,
	}, logs
}
