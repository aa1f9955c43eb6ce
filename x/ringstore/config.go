package ringstore

import "fmt"

// DefaultCapacity is the number of ring slots. 8191 is deliberately not a
// power of two so power-of-two step patterns don't alias onto few slots.
const DefaultCapacity = 8191

// Config holds ring store configuration.
type Config struct {
	// Capacity is the fixed number of ring slots. Must be positive.
	Capacity uint64 `mapstructure:"capacity" yaml:"capacity"`

	// StrictOrdering makes Record reject non-monotonic step/timestamp pairs
	// instead of trusting the write authority.
	StrictOrdering bool `mapstructure:"strict_ordering" yaml:"strict_ordering"`
}

// DefaultConfig returns the default ring store configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:       DefaultCapacity,
		StrictOrdering: false,
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Capacity == 0 {
		return fmt.Errorf("ringstore: capacity must be positive, got %d", c.Capacity)
	}
	return nil
}
