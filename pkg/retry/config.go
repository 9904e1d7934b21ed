package retry

import (
	"time"

	"github.com/niels/mdserve/pkg/config"
)

// FromConfig creates backoff options from the application configuration
func FromConfig(cfg *config.Config) Options {
	return Options{
		InitialDelay:  time.Duration(cfg.AcceptBackoff.InitialDelay) * time.Millisecond,
		MaxDelay:      time.Duration(cfg.AcceptBackoff.MaxDelay) * time.Millisecond,
		BackoffFactor: cfg.AcceptBackoff.BackoffFactor,
		JitterFactor:  cfg.AcceptBackoff.JitterFactor,
	}
}
