package wire

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimestampRequest(t *testing.T) {
	t.Parallel()

	ts := uint256.NewInt(1_700_000_000)
	req, err := DecodeRequest(EncodeTimestampRequest(ts))
	require.NoError(t, err)
	require.Equal(t, OpRootByTimestamp, req.Op)
	require.Zero(t, req.Arg.Cmp(ts))
}

func TestDecodeStepRequest(t *testing.T) {
	t.Parallel()

	step := uint256.NewInt(8191*2 + 7)
	payload := EncodeStepRequest(step)
	require.Len(t, payload, StepRequestSize)

	req, err := DecodeRequest(payload)
	require.NoError(t, err)
	require.Equal(t, OpAddressByStep, req.Op)
	require.Zero(t, req.Arg.Cmp(step))
}

func TestDecodeRejectsBadLengths(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 4, 31, 33, 35, 37, 64} {
		_, err := DecodeRequest(make([]byte, n))
		require.ErrorIs(t, err, ErrMalformedRequest, "length %d must be rejected", n)
	}
}

func TestDecodeRejectsUnknownSelector(t *testing.T) {
	t.Parallel()

	payload := EncodeStepRequest(uint256.NewInt(1))
	payload[0] ^= 0xff

	_, err := DecodeRequest(payload)
	require.ErrorIs(t, err, ErrMalformedRequest)
}

func TestEncodeRoot(t *testing.T) {
	t.Parallel()

	root := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	require.Equal(t, root.Bytes(), EncodeRoot(root))
}

func TestEncodeAddressPadsToWord(t *testing.T) {
	t.Parallel()

	addr := common.HexToAddress("0x0123456789abcdef0123456789abcdef01234567")
	out := EncodeAddress(addr)
	require.Len(t, out, WordSize)
	require.Equal(t, make([]byte, 12), out[:12])
	require.Equal(t, addr.Bytes(), out[12:])
}

func TestOpString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "root_by_timestamp", OpRootByTimestamp.String())
	require.Equal(t, "address_by_step", OpAddressByStep.String())
	require.Equal(t, "unknown", Op(99).String())
}
