package decode

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind identifies which field of Value is populated.
type Kind int

const (
	KindString Kind = iota
	KindUint
	KindAddress
	KindBytes32
	KindArray
)

// Value is a decoded ABI tuple element. Exactly one field is
// meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Str     string
	Uint    *uint256.Int
	Address common.Address
	Bytes32 [32]byte
	Array   []Value
}

func stringValue(s string) Value   { return Value{Kind: KindString, Str: s} }
func uintValue(u *uint256.Int) Value { return Value{Kind: KindUint, Uint: u} }
func addressValue(a common.Address) Value { return Value{Kind: KindAddress, Address: a} }
func bytes32Value(b [32]byte) Value { return Value{Kind: KindBytes32, Bytes32: b} }
func arrayValue(vs []Value) Value  { return Value{Kind: KindArray, Array: vs} }

// String renders the value in the same shape as the original Rust
// implementation's Debug output, e.g. `Uint(123)` or
// `String("00000234")`, which is what the spec §8 golden scenarios
// quote literally.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("String(%q)", v.Str)
	case KindUint:
		return fmt.Sprintf("Uint(%s)", v.Uint.Dec())
	case KindAddress:
		return fmt.Sprintf("Address(%s)", v.Address.Hex())
	case KindBytes32:
		return fmt.Sprintf("Bytes32(%x)", v.Bytes32)
	case KindArray:
		return fmt.Sprintf("Array(%v)", v.Array)
	default:
		return "Invalid"
	}
}
