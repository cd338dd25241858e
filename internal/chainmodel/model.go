// Package chainmodel defines the in-memory entity shapes of spec §3.
// These are plain data structs, populated by the fetchers (component
// C), consumed by the join stage (component E) and the exporters
// (component D), and dropped at the end of each slice — none persist
// across slices.
package chainmodel

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Block is spec §3's Block entity.
type Block struct {
	Number            uint64
	Hash              common.Hash
	ParentHash        common.Hash
	Nonce             uint64
	Timestamp         uint64
	Miner             common.Address
	Difficulty        *uint256.Int
	TotalDifficulty   *uint256.Int
	GasLimit          uint64
	GasUsed           uint64
	Size              uint64
	TransactionHashes []common.Hash
}

// Transaction is spec §3's Transaction entity.
type Transaction struct {
	Hash                 common.Hash
	BlockHash            common.Hash
	BlockNumber          uint64
	Index                uint32
	From                 common.Address
	To                   *common.Address // nil for contract creation
	Value                *uint256.Int
	Gas                  uint64
	GasPrice             *uint256.Int
	Input                []byte
	Nonce                uint64
	MaxFeePerGas         *uint256.Int // nil for legacy transactions
	MaxPriorityFeePerGas *uint256.Int // nil for legacy transactions
}

// Receipt is spec §3's Receipt entity.
type Receipt struct {
	TxHash            common.Hash
	BlockNumber       uint64
	TxIndex           uint32
	CumulativeGasUsed uint64
	GasUsed           uint64
	ContractAddress   *common.Address // nil unless the tx created a contract
	Status            uint8
	Logs              []Log
}

// Log is spec §3's Log entity.
type Log struct {
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint32
	LogIndex    uint32
	Address     common.Address
	Topics      []common.Hash // at most 4
	Data        []byte
}

// TokenStandard identifies the flavor of a decoded TokenTransfer.
type TokenStandard uint8

const (
	StandardERC20        TokenStandard = 20
	StandardERC721       TokenStandard = 721
	StandardERC1155Single TokenStandard = 255 // 1155_single, numeric placeholder distinct from 20/721
	StandardERC1155Batch  TokenStandard = 254 // 1155_batch
)

// TokenTransfer is spec §3's derived TokenTransfer entity.
type TokenTransfer struct {
	Standard     TokenStandard
	TokenAddress common.Address
	From         common.Address
	To           common.Address
	ValueOrID    *uint256.Int   // for ERC1155Batch, the first element
	Extras       []*uint256.Int // for ERC1155Batch, the full value list
	BlockNumber  uint64
	TxHash       common.Hash
	LogIndex     uint32
}

// EnsNameRegistered is spec §3's derived EnsNameRegistered entity.
type EnsNameRegistered struct {
	Name        string
	Label       *uint256.Int
	Expires     uint64
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint32
}
