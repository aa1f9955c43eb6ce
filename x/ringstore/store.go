// Package ringstore implements the beacon-roots history ring: a fixed-capacity
// round-robin log of (timestamp, root, address) triples written once per step
// and queried either by timestamp or by step.
//
// The layout mirrors the EIP-4788 system contract. Slots live at
// step % capacity and are overwritten forever as the chain advances; a
// timestamp -> step index grows without bound but never needs pruning because
// a lookup re-validates the slot's own timestamp before trusting it
// (see RootByTimestamp).
package ringstore

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// Store is the fixed-capacity ring of beacon roots.
//
// There is exactly one writer (the authority) and any number of concurrent
// readers. The RWMutex guarantees readers never observe a half-written slot.
type Store struct {
	log     zerolog.Logger
	metrics *Metrics

	capacity *uint256.Int
	strict   bool

	mu         sync.RWMutex
	timestamps []uint256.Int
	roots      []common.Hash
	addresses  []common.Address
	index      map[uint256.Int]uint256.Int // timestamp -> step, never pruned

	head     uint256.Int // last recorded step
	headTime uint256.Int // last recorded timestamp
	writes   uint64
}

// Option configures the store.
type Option func(*Store)

// WithMetrics attaches prometheus metrics to the store.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a ring store with cfg.Capacity zeroed slots.
func New(cfg Config, log zerolog.Logger, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		log:        log.With().Str("component", "ringstore").Logger(),
		capacity:   uint256.NewInt(cfg.Capacity),
		strict:     cfg.StrictOrdering,
		timestamps: make([]uint256.Int, cfg.Capacity),
		roots:      make([]common.Hash, cfg.Capacity),
		addresses:  make([]common.Address, cfg.Capacity),
		index:      make(map[uint256.Int]uint256.Int),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log.Info().
		Uint64("capacity", cfg.Capacity).
		Bool("strict_ordering", cfg.StrictOrdering).
		Msg("Ring store initialized")

	return s, nil
}

// Capacity returns the number of ring slots.
func (s *Store) Capacity() uint64 {
	return s.capacity.Uint64()
}

// slotFor maps a step onto its ring slot: step % capacity.
func (s *Store) slotFor(step *uint256.Int) uint64 {
	return new(uint256.Int).Mod(step, s.capacity).Uint64()
}

// Record writes the triple for one step into slot step % capacity,
// overwriting whatever occupied it, and indexes the timestamp.
//
// The write authority is responsible for calling Record exactly once per
// step, serialized, with strictly increasing step and timestamp. In strict
// mode a violation fails with ErrOrderingViolation; otherwise the write is
// applied as-is and must still leave the store internally consistent.
func (s *Store) Record(step, timestamp *uint256.Int, root common.Hash, addr common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.strict && s.writes > 0 {
		if step.Cmp(&s.head) <= 0 || timestamp.Cmp(&s.headTime) <= 0 {
			s.log.Error().
				Str("step", step.Dec()).
				Str("timestamp", timestamp.Dec()).
				Str("head_step", s.head.Dec()).
				Str("head_timestamp", s.headTime.Dec()).
				Msg("Rejected non-monotonic write")
			return ErrOrderingViolation
		}
	}

	slot := s.slotFor(step)
	s.timestamps[slot] = *timestamp
	s.roots[slot] = root
	s.addresses[slot] = addr
	s.index[*timestamp] = *step

	s.head = *step
	s.headTime = *timestamp
	s.writes++

	if s.metrics != nil {
		s.metrics.RecordWrite(s.head.Uint64(), len(s.index))
	}

	s.log.Debug().
		Str("step", step.Dec()).
		Str("timestamp", timestamp.Dec()).
		Uint64("slot", slot).
		Str("root", root.Hex()).
		Msg("Recorded beacon root")

	return nil
}

// RootByTimestamp returns the root recorded at the exact timestamp.
//
// The timestamp index can point at a step whose slot has since been reused by
// a later step, so the slot's stored timestamp is re-checked before the root
// is trusted. Without that check any timestamp older than capacity steps
// would silently resolve to an unrelated root.
func (s *Store) RootByTimestamp(timestamp *uint256.Int) (common.Hash, error) {
	// The zero timestamp is the unwritten-slot sentinel, never a stored value.
	if timestamp.IsZero() {
		s.observeLookup("root_by_timestamp", "not_found")
		return common.Hash{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	step, ok := s.index[*timestamp]
	if !ok {
		s.observeLookup("root_by_timestamp", "not_found")
		return common.Hash{}, ErrNotFound
	}

	slot := s.slotFor(&step)
	if s.timestamps[slot] != *timestamp {
		// Slot reused by a later step; the indexed entry is stale.
		s.observeLookup("root_by_timestamp", "stale")
		return common.Hash{}, ErrNotFound
	}

	s.observeLookup("root_by_timestamp", "ok")
	return s.roots[slot], nil
}

// AddressByStep returns the address field of slot step % capacity.
//
// Unlike RootByTimestamp this read is deliberately unvalidated: the slot does
// not track which step wrote it, so a step older than the last capacity
// writes, or one never written, yields whatever currently occupies the slot
// (possibly the zero sentinel). Callers are expected to stay within the
// window. The asymmetry with the timestamp path is part of the contract.
func (s *Store) AddressByStep(step *uint256.Int) common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.observeLookup("address_by_step", "ok")
	return s.addresses[s.slotFor(step)]
}

// Head returns the last recorded step and timestamp, and whether anything has
// been recorded yet.
func (s *Store) Head() (step, timestamp uint256.Int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head, s.headTime, s.writes > 0
}

// Stats returns store statistics for the operational surface.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"capacity":      s.capacity.Uint64(),
		"writes_total":  s.writes,
		"index_entries": len(s.index),
		"head_step":     s.head.Dec(),
		"head_time":     s.headTime.Dec(),
	}
}

func (s *Store) observeLookup(op, result string) {
	if s.metrics != nil {
		s.metrics.RecordLookup(op, result)
	}
}
