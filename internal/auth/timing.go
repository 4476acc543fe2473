package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// TimingConfig holds the delay applied to failed logins
type TimingConfig struct {
	BaseDelay time.Duration // Minimum time a failed login takes
	Jitter    time.Duration // Random extra delay in [0, Jitter)
}

// TimingDelay pads failed logins so that an unknown email and a wrong password
// take about the same time to answer. A zero config disables it.
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// Enabled reports whether any delay is configured
func (td *TimingDelay) Enabled() bool {
	return td != nil && (td.config.BaseDelay > 0 || td.config.Jitter > 0)
}

// Target returns the total delay for one failure: base plus a crypto-random jitter
func (td *TimingDelay) Target() time.Duration {
	if !td.Enabled() {
		return 0
	}

	target := td.config.BaseDelay
	if td.config.Jitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(td.config.Jitter)))
		if err == nil {
			target += time.Duration(n.Int64())
		}
	}
	return target
}

// WaitFrom sleeps until at least Target has elapsed since start, or ctx is done
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time) {
	remaining := td.Target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
