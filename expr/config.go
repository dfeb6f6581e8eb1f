package expr

import "log/slog"

// Config tunes a Session. The zero value is not useful, start from DefaultConfig.
type Config struct {
	// PoolWordLimit caps the words held by the node pools. Zero is unlimited.
	PoolWordLimit int `yaml:"pool_word_limit"`
	// CacheCapacity is the number of factorizations remembered.
	CacheCapacity int `yaml:"cache_capacity"`
	// PredictorMaxDepth is the deepest recursion level with its own
	// cache-gate counter.
	PredictorMaxDepth int `yaml:"predictor_max_depth"`
	// TableMinBuckets is the size below which node tables never shrink.
	TableMinBuckets int `yaml:"table_min_buckets"`
	// DisableCSE turns off common factor extraction from sums.
	DisableCSE bool `yaml:"disable_cse"`
}

func DefaultConfig() Config {
	return Config{
		CacheCapacity:     4096,
		PredictorMaxDepth: 8,
		TableMinBuckets:   16,
	}
}

type Option func(s *Session)

// WithLogger replaces the session logger. The session adds its own
// section attributes on top.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.baseLogger = logger
	}
}
