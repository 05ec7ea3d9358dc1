// Package replay feeds two frame index files through a synchronizer and
// writes the resulting pairs as JSON lines.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/framesync/internal/adapters/fs"
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/internal/ports"
	"github.com/bft-labs/framesync/pkg/framesync"
	"github.com/bft-labs/framesync/pkg/log"
)

// Config describes one replay run.
type Config struct {
	Sync framesync.Config

	// Primary and Secondary are the index files of the two channels.
	Primary   string
	Secondary string

	// Follow keeps reading as the files grow.
	Follow      bool
	IdleTimeout time.Duration

	// Options are passed to framesync.New after the logger.
	Options []framesync.Option
	Logger  log.Logger
}

// DefaultConfig returns a Config with the synchronizer defaults.
func DefaultConfig() Config {
	return Config{Sync: framesync.DefaultConfig()}
}

// Summary reports what a run did.
type Summary struct {
	Stats   framesync.Stats
	Read    [domain.NumChannels]int
	Elapsed time.Duration
}

// PairRecord is the JSON form of an emitted pair.
type PairRecord struct {
	PrimaryID    uint64 `json:"primary_id"`
	PrimaryTS    uint64 `json:"primary_ts_ns"`
	PrimaryRef   any    `json:"primary_ref"`
	SecondaryID  uint64 `json:"secondary_id"`
	SecondaryTS  uint64 `json:"secondary_ts_ns"`
	SecondaryRef any    `json:"secondary_ref"`
	DeltaNs      uint64 `json:"delta_ns"`
}

// NewPairRecord converts a pair.
func NewPairRecord(p framesync.Pair) PairRecord {
	return PairRecord{
		PrimaryID:    p.Primary.ID,
		PrimaryTS:    p.Primary.Timestamp,
		PrimaryRef:   p.Primary.Payload,
		SecondaryID:  p.Secondary.ID,
		SecondaryTS:  p.Secondary.Timestamp,
		SecondaryRef: p.Secondary.Payload,
		DeltaNs:      p.Delta(),
	}
}

// Run replays both index files until they are exhausted or ctx is canceled.
// Cancellation is a normal way to end a followed run and is not reported as
// an error.
func Run(ctx context.Context, cfg Config, out io.Writer) (Summary, error) {
	var summary Summary
	started := time.Now()

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	srcOpts := fs.IndexReaderOptions{
		Follow:      cfg.Follow,
		IdleTimeout: cfg.IdleTimeout,
		Logger:      logger,
	}
	primary, err := fs.OpenIndex(cfg.Primary, srcOpts)
	if err != nil {
		return summary, fmt.Errorf("primary: %w", err)
	}
	defer primary.Close()

	secondary, err := fs.OpenIndex(cfg.Secondary, srcOpts)
	if err != nil {
		return summary, fmt.Errorf("secondary: %w", err)
	}
	defer secondary.Close()

	sink := &jsonSink{enc: json.NewEncoder(out)}
	opts := append([]framesync.Option{framesync.WithLogger(logger)}, cfg.Options...)

	s, err := framesync.New(cfg.Sync, sink, opts...)
	if err != nil {
		return summary, err
	}
	if err := s.Start(ctx); err != nil {
		return summary, fmt.Errorf("start synchronizer: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sources := [domain.NumChannels]ports.FrameSource{primary, secondary}
	errs := make([]error, domain.NumChannels)

	var wg sync.WaitGroup
	for ch := range sources {
		wg.Add(1)
		go func(ch domain.Channel) {
			defer wg.Done()
			n, err := Pump(runCtx, sources[ch], ch, s)
			summary.Read[ch] = n
			if err != nil && !errors.Is(err, context.Canceled) {
				errs[ch] = fmt.Errorf("%s: %w", ch, err)
				cancel()
			}
		}(domain.Channel(ch))
	}
	wg.Wait()

	stopErr := s.Stop()
	summary.Stats = s.Stats()
	summary.Elapsed = time.Since(started)

	logger.Info("replay finished",
		log.Int("read_primary", summary.Read[domain.Primary]),
		log.Int("read_secondary", summary.Read[domain.Secondary]),
		log.Uint64("matched", summary.Stats.Matched),
		log.Duration("elapsed", summary.Elapsed),
	)

	return summary, errors.Join(errs[domain.Primary], errs[domain.Secondary], stopErr, sink.err)
}

// Pump reads src until it is exhausted and ingests every record on ch.
// Returns the number of records read.
func Pump(ctx context.Context, src ports.FrameSource, ch domain.Channel, ing ports.Ingestor) (int, error) {
	n := 0
	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, ports.ErrSourceExhausted) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		if err := ing.Ingest(ch, rec.Timestamp, rec.Payload); err != nil {
			return n, err
		}
	}
}

// jsonSink writes pairs as JSON lines. The synchronizer calls Emit from one
// goroutine at a time.
type jsonSink struct {
	enc *json.Encoder
	err error
}

func (j *jsonSink) Emit(p framesync.Pair) {
	if j.err != nil {
		return
	}
	if err := j.enc.Encode(NewPairRecord(p)); err != nil {
		j.err = fmt.Errorf("write pair: %w", err)
	}
}
