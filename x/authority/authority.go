// Package authority implements the single write authority in front of the
// ring store. The store itself trusts its caller; this component is where
// caller identity and strictly-increasing step/timestamp ordering are
// enforced, and where writes are serialized.
package authority

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrUnauthorized is returned when the presented token does not match.
	ErrUnauthorized = errors.New("authority: unauthorized writer")

	// ErrOrderingViolation is returned when a head does not advance both the
	// step and the timestamp. This is a programming or integration fault in
	// whatever feeds the authority, not a condition to retry.
	ErrOrderingViolation = errors.New("authority: head does not advance step and timestamp")

	// ErrInvalidHead is returned for heads that can never be valid, such as a
	// zero timestamp (the store's unwritten-slot sentinel).
	ErrInvalidHead = errors.New("authority: invalid head announcement")
)

// Authority is the sole writer of the ring store.
type Authority struct {
	log     zerolog.Logger
	metrics *Metrics
	store   Store
	enabled bool
	token   []byte

	mu       sync.Mutex
	lastHead Head
	applied  uint64
}

// Option configures the authority.
type Option func(*Authority)

// WithMetrics attaches prometheus metrics to the authority.
func WithMetrics(m *Metrics) Option {
	return func(a *Authority) {
		a.metrics = m
	}
}

// New creates the write authority for a store.
func New(store Store, cfg Config, log zerolog.Logger, opts ...Option) (*Authority, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Authority{
		log:     log.With().Str("component", "authority").Logger(),
		store:   store,
		enabled: cfg.Enabled,
		token:   []byte(cfg.Token),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.enabled {
		a.log.Info().Msg("Write authority token check enabled")
	}

	return a, nil
}

// Authorize checks the caller's shared token. A disabled authority accepts
// any caller; access control then belongs to the deployment perimeter.
func (a *Authority) Authorize(token string) error {
	if !a.enabled {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), a.token) != 1 {
		a.reject("unauthorized")
		return ErrUnauthorized
	}
	return nil
}

// Apply validates one head announcement and records it. Calls are serialized
// so the store only ever sees one write at a time, in step order.
func (a *Authority) Apply(ctx context.Context, head Head) error {
	if head.Timestamp.IsZero() {
		a.reject("invalid")
		return ErrInvalidHead
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.applied > 0 {
		if head.Step.Cmp(&a.lastHead.Step) <= 0 || head.Timestamp.Cmp(&a.lastHead.Timestamp) <= 0 {
			a.log.Error().
				Str("step", head.Step.Dec()).
				Str("timestamp", head.Timestamp.Dec()).
				Str("last_step", a.lastHead.Step.Dec()).
				Str("last_timestamp", a.lastHead.Timestamp.Dec()).
				Msg("Rejected head announcement out of order")
			a.reject("ordering")
			return ErrOrderingViolation
		}
	}

	if err := a.store.Record(&head.Step, &head.Timestamp, head.Root, head.Address); err != nil {
		a.reject("store")
		return err
	}

	a.lastHead = head
	a.applied++

	if a.metrics != nil {
		a.metrics.RecordApplied()
	}

	a.log.Info().
		Str("step", head.Step.Dec()).
		Str("timestamp", head.Timestamp.Dec()).
		Str("root", head.Root.Hex()).
		Msg("Applied head announcement")

	return nil
}

// Stats returns authority statistics for the operational surface.
func (a *Authority) Stats() map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	return map[string]interface{}{
		"heads_applied": a.applied,
		"last_step":     a.lastHead.Step.Dec(),
		"auth_enabled":  a.enabled,
	}
}

func (a *Authority) reject(reason string) {
	if a.metrics != nil {
		a.metrics.RecordRejected(reason)
	}
}
