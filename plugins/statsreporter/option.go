package statsreporter

import "github.com/bft-labs/framesync/pkg/framesync"

// WithStatsReporter returns a framesync Option that logs stats every
// cfg.Interval.
func WithStatsReporter(cfg Config) framesync.Option {
	return framesync.WithPlugin(New(cfg))
}
