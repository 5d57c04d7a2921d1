package safety

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by New when a config field is out of range.
	ErrInvalidConfig = errors.New("invalid validator config")
	// ErrUnknownFeedback is returned by RecordFeedback for out-of-range values.
	ErrUnknownFeedback = errors.New("unknown feedback kind")
)

// Config controls which analysis stages run and how they are tuned.
type Config struct {
	EnableMLAnalysis       bool
	EnableContextAnalysis  bool
	EnableThreatIntel      bool
	EnableAdaptiveLearning bool
	EnableChainAnalysis    bool

	// MaxChainLength bounds the window of commands a single chain analysis
	// considers. Must be >= 1.
	MaxChainLength int

	// MLConfidenceThreshold is the confidence a behavioral score must cross
	// to count as a detection. Identical across presets; tuning it is an
	// escape hatch, not a profile difference. Must lie in [0, 1].
	MLConfidenceThreshold float64
}

// DefaultConfig enables everything with balanced tuning.
func DefaultConfig() Config {
	return Config{
		EnableMLAnalysis:       true,
		EnableContextAnalysis:  true,
		EnableThreatIntel:      true,
		EnableAdaptiveLearning: true,
		EnableChainAnalysis:    true,
		MaxChainLength:         10,
		MLConfidenceThreshold:  0.5,
	}
}

// ProductionConfig keeps detection identical to the default but tightens the
// chain window to bound worst-case latency on busy hosts.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxChainLength = 8
	return cfg
}

// DevelopmentConfig widens the chain window and turns adaptive learning off
// so test feedback does not accumulate between runs.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxChainLength = 20
	cfg.EnableAdaptiveLearning = false
	return cfg
}

func (c Config) validate() error {
	if c.MaxChainLength < 1 {
		return fmt.Errorf("%w: max chain length %d, must be >= 1", ErrInvalidConfig, c.MaxChainLength)
	}
	if c.MLConfidenceThreshold < 0 || c.MLConfidenceThreshold > 1 {
		return fmt.Errorf("%w: ml confidence threshold %v, must be in [0, 1]", ErrInvalidConfig, c.MLConfidenceThreshold)
	}
	return nil
}
