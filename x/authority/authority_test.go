package authority

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordCall struct {
	step      uint256.Int
	timestamp uint256.Int
	root      common.Hash
	addr      common.Address
}

type mockStore struct {
	calls []recordCall
	err   error
}

func (m *mockStore) Record(step, timestamp *uint256.Int, root common.Hash, addr common.Address) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, recordCall{step: *step, timestamp: *timestamp, root: root, addr: addr})
	return nil
}

func newTestAuthority(t *testing.T, store Store, cfg Config) *Authority {
	t.Helper()

	a, err := New(store, cfg, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func headAt(step, ts uint64) Head {
	return Head{
		Step:      *uint256.NewInt(step),
		Timestamp: *uint256.NewInt(ts),
		Root:      common.HexToHash("0x01"),
		Address:   common.HexToAddress("0x02"),
	}
}

func TestAuthorityRequiresTokenWhenEnabled(t *testing.T) {
	t.Parallel()

	_, err := New(&mockStore{}, Config{Enabled: true}, zerolog.Nop())
	require.Error(t, err)

	a := newTestAuthority(t, &mockStore{}, Config{Enabled: true, Token: "s3cret"})
	require.NoError(t, a.Authorize("s3cret"))
	require.ErrorIs(t, a.Authorize("wrong"), ErrUnauthorized)
	require.ErrorIs(t, a.Authorize(""), ErrUnauthorized)
}

func TestAuthorityDisabledAcceptsAnyCaller(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t, &mockStore{}, DefaultConfig())
	require.NoError(t, a.Authorize("anything"))
}

func TestAuthorityAppliesInOrder(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	a := newTestAuthority(t, store, DefaultConfig())

	require.NoError(t, a.Apply(t.Context(), headAt(1, 100)))
	require.NoError(t, a.Apply(t.Context(), headAt(2, 112)))
	require.Len(t, store.calls, 2)
	require.Equal(t, uint64(2), store.calls[1].step.Uint64())
}

func TestAuthorityRejectsOutOfOrderHeads(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	a := newTestAuthority(t, store, DefaultConfig())
	require.NoError(t, a.Apply(t.Context(), headAt(5, 500)))

	// Step going backwards.
	require.ErrorIs(t, a.Apply(t.Context(), headAt(4, 600)), ErrOrderingViolation)
	// Step repeated.
	require.ErrorIs(t, a.Apply(t.Context(), headAt(5, 600)), ErrOrderingViolation)
	// Timestamp not advancing.
	require.ErrorIs(t, a.Apply(t.Context(), headAt(6, 500)), ErrOrderingViolation)

	// None of the rejected heads reached the store.
	require.Len(t, store.calls, 1)

	require.NoError(t, a.Apply(t.Context(), headAt(6, 512)))
	require.Len(t, store.calls, 2)
}

func TestAuthorityRejectsZeroTimestamp(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	a := newTestAuthority(t, store, DefaultConfig())

	require.ErrorIs(t, a.Apply(t.Context(), headAt(1, 0)), ErrInvalidHead)
	require.Empty(t, store.calls)
}

func TestAuthorityPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("boom")
	a := newTestAuthority(t, &mockStore{err: storeErr}, DefaultConfig())

	require.ErrorIs(t, a.Apply(t.Context(), headAt(1, 100)), storeErr)

	// A failed record must not advance the authority's ordering watermark.
	store := &mockStore{err: storeErr}
	a = newTestAuthority(t, store, DefaultConfig())
	require.Error(t, a.Apply(t.Context(), headAt(3, 300)))
	store.err = nil
	require.NoError(t, a.Apply(t.Context(), headAt(3, 300)))
}

func TestAuthorityStats(t *testing.T) {
	t.Parallel()

	a := newTestAuthority(t, &mockStore{}, DefaultConfig())
	require.NoError(t, a.Apply(t.Context(), headAt(9, 900)))

	stats := a.Stats()
	require.Equal(t, uint64(1), stats["heads_applied"])
	require.Equal(t, "9", stats["last_step"])
}
