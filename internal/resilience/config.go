package resilience

import "time"

// Config tunes retry and circuit breaker behavior for outbound calls.
type Config struct {
	RetryAttempts       uint    `toml:"retry_attempts"`
	RetryDelay          string  `toml:"retry_delay"`
	RetryMaxDelay       string  `toml:"retry_max_delay"`
	BreakerEnabled      bool    `toml:"breaker_enabled"`
	BreakerMinRequests  uint32  `toml:"breaker_min_requests"`
	BreakerFailureRatio float64 `toml:"breaker_failure_ratio"`
	BreakerOpenTimeout  string  `toml:"breaker_open_timeout"`
	BreakerHalfOpenMax  uint32  `toml:"breaker_half_open_max"`
}

// RetryDelayDuration returns RetryDelay as a time.Duration.
func (c *Config) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// RetryMaxDelayDuration returns RetryMaxDelay as a time.Duration.
func (c *Config) RetryMaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryMaxDelay)
	return d
}

// BreakerOpenTimeoutDuration returns BreakerOpenTimeout as a time.Duration.
func (c *Config) BreakerOpenTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BreakerOpenTimeout)
	return d
}

// Finalize applies defaults and sanity bounds.
func (c *Config) Finalize() error {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay == "" {
		c.RetryDelay = "100ms"
	}
	if c.RetryMaxDelay == "" {
		c.RetryMaxDelay = "2s"
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = 10
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = 0.5
	}
	if c.BreakerOpenTimeout == "" {
		c.BreakerOpenTimeout = "30s"
	}
	if c.BreakerHalfOpenMax == 0 {
		c.BreakerHalfOpenMax = 2
	}
	if c.RetryMaxDelayDuration() < c.RetryDelayDuration() {
		c.RetryMaxDelay = c.RetryDelay
	}
	return nil
}

// Merge overwrites fields from overlay. BreakerEnabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.BreakerEnabled = overlay.BreakerEnabled

	if overlay.RetryAttempts != 0 {
		c.RetryAttempts = overlay.RetryAttempts
	}
	if overlay.RetryDelay != "" {
		c.RetryDelay = overlay.RetryDelay
	}
	if overlay.RetryMaxDelay != "" {
		c.RetryMaxDelay = overlay.RetryMaxDelay
	}
	if overlay.BreakerMinRequests != 0 {
		c.BreakerMinRequests = overlay.BreakerMinRequests
	}
	if overlay.BreakerFailureRatio != 0 {
		c.BreakerFailureRatio = overlay.BreakerFailureRatio
	}
	if overlay.BreakerOpenTimeout != "" {
		c.BreakerOpenTimeout = overlay.BreakerOpenTimeout
	}
	if overlay.BreakerHalfOpenMax != 0 {
		c.BreakerHalfOpenMax = overlay.BreakerHalfOpenMax
	}
}
