package authority

import (
	"fmt"
	"strings"
)

// Config holds write authority configuration.
type Config struct {
	// Enabled toggles the shared-token identity check on the write path.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Token is the shared secret the designated writer presents.
	Token string `mapstructure:"token" yaml:"token"`
}

// DefaultConfig returns the default authority configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Token:   "",
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Enabled && strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("authority: enabled is true but token is empty")
	}
	return nil
}
