package rpcfetch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/stretchr/testify/require"
)

// fakeCaller resolves rpc.BatchElem by unmarshalling pre-canned JSON
// responses keyed by method+first-arg, mimicking one HTTP round trip
// per chunk without a real transport.
type fakeCaller struct {
	blocksByNumber map[string]string // hex number -> raw block JSON
	receiptsByHash map[string]string // hash hex -> raw receipt JSON, "" means null
	chunks         int
}

func (f *fakeCaller) BatchCallContext(ctx context.Context, elems []rpc.BatchElem) error {
	f.chunks++
	for i := range elems {
		switch elems[i].Method {
		case "eth_getBlockByNumber":
			num := elems[i].Args[0].(string)
			raw, ok := f.blocksByNumber[num]
			if !ok {
				continue // leave zero value -> Missing
			}
			if err := json.Unmarshal([]byte(raw), elems[i].Result); err != nil {
				return err
			}
		case "eth_getTransactionReceipt":
			h := elems[i].Args[0].(common.Hash).Hex()
			raw, ok := f.receiptsByHash[h]
			if !ok || raw == "" {
				continue // leave nil -> Missing
			}
			if err := json.Unmarshal([]byte(raw), elems[i].Result); err != nil {
				return err
			}
		}
	}
	return nil
}

func blockJSON(number, hash, parent string, txHash string) string {
	return `{
		"number": "` + number + `",
		"hash": "` + hash + `",
		"parentHash": "` + parent + `",
		"nonce": "0x0000000000000042",
		"timestamp": "0x5",
		"miner": "0x0000000000000000000000000000000000000001",
		"difficulty": "0x1",
		"totalDifficulty": "0x2",
		"gasLimit": "0x100",
		"gasUsed": "0x10",
		"size": "0x200",
		"transactions": [{
			"hash": "` + txHash + `",
			"blockHash": "` + hash + `",
			"blockNumber": "` + number + `",
			"transactionIndex": "0x0",
			"from": "0x0000000000000000000000000000000000000002",
			"to": "0x0000000000000000000000000000000000000003",
			"value": "0x1",
			"gas": "0x5208",
			"gasPrice": "0x3b9aca00",
			"input": "0x",
			"nonce": "0x0"
		}]
	}`
}

func TestBlockFetcher_FetchInOrder(t *testing.T) {
	txHash := "0x" + fmtHash("aa")
	caller := &fakeCaller{blocksByNumber: map[string]string{
		"0x64": blockJSON("0x64", "0x"+fmtHash("01"), "0x"+fmtHash("00"), txHash),
		"0x65": blockJSON("0x65", "0x"+fmtHash("02"), "0x"+fmtHash("01"), "0x"+fmtHash("bb")),
	}}
	counters := &progress.Counters{}
	bf := NewBlockFetcher(caller, 50, counters)

	res, err := bf.Fetch(context.Background(), 100, 102)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 2)
	require.Equal(t, uint64(100), res.Blocks[0].Number)
	require.Equal(t, uint64(101), res.Blocks[1].Number)
	require.Len(t, res.TxHashes, 2)
	require.Len(t, res.Transactions, 2)
	require.Equal(t, int64(2), counters.Blocks())
	require.Equal(t, int64(2), counters.Transactions())
}

func TestBlockFetcher_MissingBlockIsFatal(t *testing.T) {
	caller := &fakeCaller{blocksByNumber: map[string]string{}}
	bf := NewBlockFetcher(caller, 50, nil)
	_, err := bf.Fetch(context.Background(), 100, 101)
	require.Error(t, err)
}

func TestBlockFetcher_ChunksRespectBatchSize(t *testing.T) {
	blocks := map[string]string{}
	for i := 0; i < 5; i++ {
		n := 100 + i
		hexN := "0x" + itoaHex(n)
		blocks[hexN] = blockJSON(hexN, "0x"+fmtHash("01"), "0x"+fmtHash("00"), "0x"+fmtHash("aa"))
	}
	caller := &fakeCaller{blocksByNumber: blocks}
	bf := NewBlockFetcher(caller, 2, nil)
	res, err := bf.Fetch(context.Background(), 100, 105)
	require.NoError(t, err)
	require.Len(t, res.Blocks, 5)
	require.Equal(t, 3, caller.chunks) // ceil(5/2)
}

func TestReceiptFetcher_AlignedToInputOrder(t *testing.T) {
	hashA := common.HexToHash("0xaa")
	hashB := common.HexToHash("0xbb")
	caller := &fakeCaller{receiptsByHash: map[string]string{
		hashA.Hex(): receiptJSON(hashA.Hex(), "0x64", "0x0"),
		hashB.Hex(): receiptJSON(hashB.Hex(), "0x64", "0x1"),
	}}
	counters := &progress.Counters{}
	rf := NewReceiptFetcher(caller, 50, counters)
	receipts, logs, err := rf.Fetch(context.Background(), []common.Hash{hashA, hashB})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, hashA, receipts[0].TxHash)
	require.Equal(t, hashB, receipts[1].TxHash)
	require.Len(t, logs, 2)
	require.Equal(t, int64(2), counters.Receipts())
}

func TestReceiptFetcher_NullReceiptIsFatal(t *testing.T) {
	hashA := common.HexToHash("0xaa")
	caller := &fakeCaller{receiptsByHash: map[string]string{}}
	rf := NewReceiptFetcher(caller, 50, nil)
	_, _, err := rf.Fetch(context.Background(), []common.Hash{hashA})
	require.Error(t, err)
}

func receiptJSON(txHash, blockNumber, txIndex string) string {
	return `{
		"transactionHash": "` + txHash + `",
		"blockNumber": "` + blockNumber + `",
		"transactionIndex": "` + txIndex + `",
		"cumulativeGasUsed": "0x10",
		"gasUsed": "0x8",
		"contractAddress": null,
		"status": "0x1",
		"logs": [{
			"blockNumber": "` + blockNumber + `",
			"transactionHash": "` + txHash + `",
			"transactionIndex": "` + txIndex + `",
			"logIndex": "0x0",
			"address": "0x0000000000000000000000000000000000000009",
			"topics": ["0x` + fmtHash("ff") + `"],
			"data": "0x"
		}]
	}`
}

func fmtHash(suffix string) string {
	s := suffix
	for len(s) < 64 {
		s = "0" + s
	}
	return s
}

func itoaHex(n int) string {
	const digits = "0123456789abcdef"
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%16]}, buf...)
		n /= 16
	}
	return string(buf)
}
