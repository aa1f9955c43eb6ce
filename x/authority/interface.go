package authority

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Store is the write side of the ring store the authority feeds.
type Store interface {
	Record(step, timestamp *uint256.Int, root common.Hash, addr common.Address) error
}

// Head is one announced (step, timestamp, root, address) triple-plus-key.
type Head struct {
	Step      uint256.Int
	Timestamp uint256.Int
	Root      common.Hash
	Address   common.Address
}

// Writer applies head announcements to the store, one at a time, in order.
type Writer interface {
	// Authorize checks the caller's shared token before a write is accepted.
	Authorize(token string) error

	// Apply validates and records one head. Ordering violations are
	// integration faults and fail the whole announcement.
	Apply(ctx context.Context, head Head) error
}
