package etl

import "github.com/ethereum/go-ethereum/common"

// Well-known event signature hashes (topic0) used to dispatch a log to
// its transfer/ENS decoder, per spec §4.E step 3. These are the
// standard Solidity event selectors, not derived from any example or
// original-source file — original_source/common/eth/tests/it/decode.rs
// exercises the decoders directly and never performs the topic0
// dispatch itself (Design Note: "topic0 dispatch location").
var (
	// TransferTopic is keccak256("Transfer(address,address,uint256)"),
	// shared by ERC-20 and ERC-721; the two are distinguished by topic
	// count (ERC-721 indexes tokenId, giving 4 topics instead of 3).
	TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

	// TransferSingleTopic is
	// keccak256("TransferSingle(address,address,address,uint256,uint256)").
	TransferSingleTopic = common.HexToHash("0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62")

	// TransferBatchTopic is
	// keccak256("TransferBatch(address,address,address,uint256[],uint256[])").
	TransferBatchTopic = common.HexToHash("0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb")

	// NameRegisteredTopic is
	// keccak256("NameRegistered(string,uint256,uint256)"), matching the
	// (name, label, expires) tuple spec §3/§4.B decode.
	NameRegisteredTopic = common.HexToHash("0xdf41a9eb4e2338a0443929237b1ce9d8c698c5482e8b3557b4e0e1de500c96cc")
)
