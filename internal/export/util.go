package export

import (
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// hexutilUint64 renders a block nonce the way go-ethereum's own JSON
// encoding does: an 8-byte big-endian hex string.
func hexutilUint64(v uint64) string {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return hexutil.Encode(b[:])
}

func hexBytes(b []byte) string {
	return hexutil.Encode(b)
}

// appendOptionalDec appends v's decimal representation, or null when
// v is nil (EIP-1559 fields are absent on legacy transactions).
func appendOptionalDec(b *array.StringBuilder, v *uint256.Int) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(v.Dec())
}
