// Package decode is the ABI-free log decoder described in spec §4.B.
// It understands exactly the fixed payload shapes the pipeline needs —
// a tuple of {string, uint, uint[], address, bytes32} — and nothing of
// the general Solidity ABI (no structs, no nested dynamic arrays, no
// fixed-size arrays). Grounded on original_source/common/eth/tests/it/decode.rs,
// which fixes the exact byte layouts and expected outputs reproduced
// in this package's tests and in spec §8 scenarios S1-S3.
package decode

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/mars-etl/ethetl/internal/errs"
)

const wordSize = 32

// DecodeWithTypes decodes a tuple given ABI type tokens from the set
// {string, uint, uint[], address, bytes32}. Dynamic types (string,
// uint[]) use the standard head/tail layout: the head word is a
// byte offset into data, and the tail begins with a length word
// followed by the payload.
func DecodeWithTypes(types []string, data []byte) ([]Value, error) {
	const op = "decode.DecodeWithTypes"
	if len(types)*wordSize > len(data) {
		return nil, errs.Decode(op, errLayout("head section shorter than type count"))
	}
	values := make([]Value, len(types))
	for i, t := range types {
		head := data[i*wordSize : i*wordSize+wordSize]
		switch t {
		case "uint":
			values[i] = uintValue(new(uint256.Int).SetBytes(head))
		case "address":
			values[i] = addressValue(common.BytesToAddress(head[wordSize-common.AddressLength:]))
		case "bytes32":
			var b [32]byte
			copy(b[:], head)
			values[i] = bytes32Value(b)
		case "string":
			offset, err := wordToOffset(head)
			if err != nil {
				return nil, errs.Decode(op, err)
			}
			s, err := decodeDynamicBytes(data, offset)
			if err != nil {
				return nil, errs.Decode(op, err)
			}
			values[i] = stringValue(string(s))
		case "uint[]":
			offset, err := wordToOffset(head)
			if err != nil {
				return nil, errs.Decode(op, err)
			}
			arr, err := decodeDynamicUintArray(data, offset)
			if err != nil {
				return nil, errs.Decode(op, err)
			}
			values[i] = arrayValue(arr)
		default:
			return nil, errs.Decode(op, errLayout("unsupported type token "+t))
		}
	}
	return values, nil
}

// DecodeU256 decodes a single 32-byte big-endian unsigned integer.
func DecodeU256(data []byte) (*uint256.Int, error) {
	if len(data) != wordSize {
		return nil, errs.Decode("decode.DecodeU256", errLayout("expected exactly 32 bytes"))
	}
	return new(uint256.Int).SetBytes(data), nil
}

// TransferSingle is the decoded payload of an ERC-1155 TransferSingle
// event (after the topic0 dispatch in the join stage has already
// identified the log as this shape).
type TransferSingle struct {
	ID    *uint256.Int
	Value *uint256.Int
}

// DecodeTransferSingle decodes the two-word (id, value) tuple.
func DecodeTransferSingle(data []byte) (*TransferSingle, error) {
	values, err := DecodeWithTypes([]string{"uint", "uint"}, data)
	if err != nil {
		return nil, err
	}
	return &TransferSingle{ID: values[0].Uint, Value: values[1].Uint}, nil
}

// TransferBatch is the decoded payload of an ERC-1155 TransferBatch
// event: two equal-length dynamic uint[] arrays.
type TransferBatch struct {
	IDs    []*uint256.Int
	Values []*uint256.Int
}

// DecodeTransferBatch decodes the (ids, values) tuple of equal-length
// dynamic uint arrays, failing if the lengths differ.
func DecodeTransferBatch(data []byte) (*TransferBatch, error) {
	const op = "decode.DecodeTransferBatch"
	values, err := DecodeWithTypes([]string{"uint[]", "uint[]"}, data)
	if err != nil {
		return nil, err
	}
	ids, vals := values[0].Array, values[1].Array
	if len(ids) != len(vals) {
		return nil, errs.Decode(op, errLayout("ids and values arrays differ in length"))
	}
	out := &TransferBatch{
		IDs:    make([]*uint256.Int, len(ids)),
		Values: make([]*uint256.Int, len(vals)),
	}
	for i := range ids {
		out.IDs[i] = ids[i].Uint
		out.Values[i] = vals[i].Uint
	}
	return out, nil
}

// NameRegistered is the decoded payload of an ENS NameRegistered
// event.
type NameRegistered struct {
	Name    string
	Label   *uint256.Int
	Expires uint64
}

// DecodeNameRegistered decodes the (name, label, expires) tuple.
func DecodeNameRegistered(data []byte) (*NameRegistered, error) {
	const op = "decode.DecodeNameRegistered"
	values, err := DecodeWithTypes([]string{"string", "uint", "uint"}, data)
	if err != nil {
		return nil, err
	}
	expires := values[2].Uint
	if !expires.IsUint64() {
		return nil, errs.Decode(op, errLayout("expires does not fit in uint64"))
	}
	return &NameRegistered{
		Name:    values[0].Str,
		Label:   values[1].Uint,
		Expires: expires.Uint64(),
	}, nil
}

func wordToOffset(word []byte) (int, error) {
	u := new(uint256.Int).SetBytes(word)
	if !u.IsUint64() || u.Uint64() > 1<<32 {
		return 0, errLayout("offset out of range")
	}
	return int(u.Uint64()), nil
}

// decodeDynamicBytes reads a length-prefixed byte payload at offset:
// a 32-byte length word followed by the payload padded to a 32-byte
// boundary.
func decodeDynamicBytes(data []byte, offset int) ([]byte, error) {
	if offset < 0 || offset+wordSize > len(data) {
		return nil, errLayout("dynamic offset out of range")
	}
	length, err := wordToOffset(data[offset : offset+wordSize])
	if err != nil {
		return nil, err
	}
	start := offset + wordSize
	if length < 0 || start+length > len(data) {
		return nil, errLayout("dynamic length exceeds remaining bytes")
	}
	return data[start : start+length], nil
}

// decodeDynamicUintArray reads a length-prefixed array of uint words
// at offset.
func decodeDynamicUintArray(data []byte, offset int) ([]Value, error) {
	if offset < 0 || offset+wordSize > len(data) {
		return nil, errLayout("dynamic offset out of range")
	}
	n, err := wordToOffset(data[offset : offset+wordSize])
	if err != nil {
		return nil, err
	}
	start := offset + wordSize
	need := n * wordSize
	if n < 0 || start+need > len(data) {
		return nil, errLayout("dynamic array length exceeds remaining bytes")
	}
	out := make([]Value, n)
	for i := 0; i < n; i++ {
		w := data[start+i*wordSize : start+i*wordSize+wordSize]
		out[i] = uintValue(new(uint256.Int).SetBytes(w))
	}
	return out, nil
}

type layoutError string

func (e layoutError) Error() string { return "layout: " + string(e) }

func errLayout(msg string) error { return layoutError(msg) }
