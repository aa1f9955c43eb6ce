// Package wire implements the raw byte contract of the beacon-roots query
// surface. A request is either a single 32-byte big-endian timestamp (root
// lookup) or a 4-byte operation selector followed by a 32-byte big-endian
// step (address lookup). Any other payload is rejected before the store is
// consulted.
package wire

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	// WordSize is the width of the single u256 argument every request carries.
	WordSize = 32

	// SelectorSize is the width of the step-lookup operation selector.
	SelectorSize = 4

	// TimestampRequestSize is the exact length of a root-by-timestamp request.
	TimestampRequestSize = WordSize

	// StepRequestSize is the exact length of an address-by-step request.
	StepRequestSize = SelectorSize + WordSize
)

// ErrMalformedRequest is returned when a payload matches neither accepted
// request shape.
var ErrMalformedRequest = errors.New("wire: malformed request payload")

// StepSelector is the 4-byte selector of the address-by-step operation,
// derived from the operation signature the usual ABI way.
var StepSelector = func() [SelectorSize]byte {
	var sel [SelectorSize]byte
	copy(sel[:], crypto.Keccak256([]byte("getAddressByStep(uint256)")))
	return sel
}()

// Op identifies which store operation a request selects.
type Op int

const (
	OpRootByTimestamp Op = iota
	OpAddressByStep
)

// String returns the string representation of Op
func (o Op) String() string {
	switch o {
	case OpRootByTimestamp:
		return "root_by_timestamp"
	case OpAddressByStep:
		return "address_by_step"
	default:
		return "unknown"
	}
}

// Request is a decoded query.
type Request struct {
	Op  Op
	Arg uint256.Int // timestamp or step, depending on Op
}

// DecodeRequest parses a raw payload into a Request. Length alone
// disambiguates the two shapes; a 36-byte payload must additionally carry the
// step selector.
func DecodeRequest(payload []byte) (Request, error) {
	switch len(payload) {
	case TimestampRequestSize:
		var req Request
		req.Op = OpRootByTimestamp
		req.Arg.SetBytes(payload)
		return req, nil

	case StepRequestSize:
		if !bytes.Equal(payload[:SelectorSize], StepSelector[:]) {
			return Request{}, ErrMalformedRequest
		}
		var req Request
		req.Op = OpAddressByStep
		req.Arg.SetBytes(payload[SelectorSize:])
		return req, nil

	default:
		return Request{}, ErrMalformedRequest
	}
}

// EncodeStepRequest builds the 36-byte address-by-step payload.
func EncodeStepRequest(step *uint256.Int) []byte {
	out := make([]byte, StepRequestSize)
	copy(out, StepSelector[:])
	step.WriteToSlice(out[SelectorSize:])
	return out
}

// EncodeTimestampRequest builds the 32-byte root-by-timestamp payload.
func EncodeTimestampRequest(timestamp *uint256.Int) []byte {
	out := make([]byte, TimestampRequestSize)
	timestamp.WriteToSlice(out)
	return out
}

// EncodeRoot encodes a root lookup result: the 32 hash bytes verbatim.
func EncodeRoot(root common.Hash) []byte {
	return root.Bytes()
}

// EncodeAddress encodes an address lookup result: the 20 address bytes
// left-padded to one 32-byte word.
func EncodeAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), WordSize)
}
