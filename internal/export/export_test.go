package export

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mars-etl/ethetl/internal/chainmodel"
	"github.com/mars-etl/ethetl/internal/progress"
	"github.com/stretchr/testify/require"
)

type captureStorage struct {
	paths []string
	sizes []int
}

func (c *captureStorage) Put(ctx context.Context, path string, data []byte) error {
	c.paths = append(c.paths, path)
	c.sizes = append(c.sizes, len(data))
	return nil
}

func TestBlockExporter_WritesExpectedPath(t *testing.T) {
	cap := &captureStorage{}
	counters := &progress.Counters{}
	e := &BlockExporter{Storage: cap, Counters: counters}

	blocks := []chainmodel.Block{
		{
			Number:          101,
			Hash:            common.HexToHash("0x01"),
			ParentHash:      common.HexToHash("0x00"),
			Miner:           common.HexToAddress("0x02"),
			Difficulty:      uint256.NewInt(1),
			TotalDifficulty: uint256.NewInt(2),
			GasLimit:        100,
			GasUsed:         10,
			Size:            200,
			Timestamp:       5,
		},
		{
			Number:          100,
			Hash:            common.HexToHash("0x03"),
			ParentHash:      common.HexToHash("0x00"),
			Miner:           common.HexToAddress("0x02"),
			Difficulty:      uint256.NewInt(1),
			TotalDifficulty: uint256.NewInt(2),
			GasLimit:        100,
			GasUsed:         10,
			Size:            200,
			Timestamp:       4,
		},
	}

	err := e.Export(context.Background(), 100, 102, blocks)
	require.NoError(t, err)
	require.Equal(t, []string{"blocks/blocks_100_102.parquet"}, cap.paths)
	require.Greater(t, cap.sizes[0], 0)
	require.Greater(t, counters.BytesWritten(), int64(0))
}

func TestTransactionExporter_UnsortedInputWritesExpectedPath(t *testing.T) {
	cap := &captureStorage{}
	e := &TransactionExporter{Storage: cap}

	txs := []chainmodel.Transaction{
		{Hash: common.HexToHash("0x2"), BlockNumber: 100, Index: 1, Value: uint256.NewInt(1), Gas: 1, GasPrice: uint256.NewInt(1)},
		{Hash: common.HexToHash("0x1"), BlockNumber: 100, Index: 0, Value: uint256.NewInt(1), Gas: 1, GasPrice: uint256.NewInt(1)},
	}
	err := e.Export(context.Background(), 100, 101, txs)
	require.NoError(t, err)
	require.Equal(t, []string{"transactions/transactions_100_101.parquet"}, cap.paths)
}

func TestLogsExporter_EmptySliceStillWrites(t *testing.T) {
	cap := &captureStorage{}
	e := &LogsExporter{Storage: cap}
	err := e.Export(context.Background(), 100, 101, nil)
	require.NoError(t, err)
	require.Len(t, cap.paths, 1)
}
