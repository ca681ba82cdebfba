package model

import "time"

// RetryConfig defines how many times a worker re-invokes the producer for one item
type RetryConfig struct {
	MaxAttempts       int           `json:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	InitialDelay      time.Duration `json:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay          time.Duration `json:"max_delay" mapstructure:"max_delay"`
	BackoffMultiplier float64       `json:"backoff_multiplier" mapstructure:"backoff_multiplier" validate:"gte=1"`
}

// NoRetry attempts every item exactly once
var NoRetry = RetryConfig{
	MaxAttempts:       1,
	BackoffMultiplier: 1,
}
