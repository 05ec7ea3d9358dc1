package pairjournal

import "github.com/bft-labs/framesync/pkg/framesync"

// WithPairJournal returns a framesync Option that records matched pairs to
// the SQLite database at cfg.Path.
//
// Usage:
//
//	s, err := framesync.New(cfg, sink,
//	    pairjournal.WithPairJournal(pairjournal.Config{
//	        Path: "/var/lib/framesync/pairs.db",
//	    }),
//	)
func WithPairJournal(cfg Config) framesync.Option {
	return framesync.WithPlugin(New(cfg))
}
