// Package framesync pairs frames from two independently timestamped streams.
//
// This package is a thin convenience layer. Embedders that only need the
// synchronizer should use pkg/framesync directly; Replay runs the same
// pipeline the framesync command does.
//
// Example usage:
//
//	cfg := framesync.DefaultReplayConfig()
//	cfg.Primary = "/data/color.idx"
//	cfg.Secondary = "/data/depth.idx"
//	summary, err := framesync.Replay(context.Background(), cfg, os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(summary.Stats.Matched, "pairs")
package framesync

import (
	"context"
	"io"

	"github.com/bft-labs/framesync/internal/replay"
	core "github.com/bft-labs/framesync/pkg/framesync"
)

// Config holds the synchronizer configuration.
type Config = core.Config

// Synchronizer pairs frames by timestamp.
type Synchronizer = core.Synchronizer

// Pair is a primary and a secondary frame within tolerance.
type Pair = core.Pair

// Sink receives matched pairs.
type Sink = core.Sink

// SinkFunc adapts a function to Sink.
type SinkFunc = core.SinkFunc

// Option configures optional behavior of a Synchronizer.
type Option = core.Option

// Plugin extends a Synchronizer with components that share its lifecycle.
type Plugin = core.Plugin

// ReplayConfig describes a replay of two frame index files.
type ReplayConfig = replay.Config

// ReplaySummary reports what a replay did.
type ReplaySummary = replay.Summary

// PairRecord is the JSON form in which Replay writes pairs.
type PairRecord = replay.PairRecord

// New creates a Synchronizer. See pkg/framesync for details.
func New(cfg Config, sink Sink, opts ...Option) (*Synchronizer, error) {
	return core.New(cfg, sink, opts...)
}

// WithPlugin registers a plugin. See pkg/framesync.WithPlugin.
func WithPlugin(p Plugin) Option {
	return core.WithPlugin(p)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return core.DefaultConfig()
}

// DefaultReplayConfig returns a ReplayConfig with default synchronizer
// settings. Primary and Secondary must be set before calling Replay.
func DefaultReplayConfig() ReplayConfig {
	return replay.DefaultConfig()
}

// Replay feeds both index files through a synchronizer and writes each pair
// to out as a JSON line. It blocks until both files are exhausted or ctx is
// canceled.
func Replay(ctx context.Context, cfg ReplayConfig, out io.Writer) (ReplaySummary, error) {
	return replay.Run(ctx, cfg, out)
}
