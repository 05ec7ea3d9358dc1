package fs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/internal/ports"
	"github.com/bft-labs/framesync/pkg/log"
)

// Stamp is a (seconds, nanoseconds) capture time as found in message headers.
type Stamp struct {
	Sec     uint32 `json:"sec"`
	Nanosec uint32 `json:"nanosec"`
}

// IndexRecord is one line of a frame index file. Either TimestampNs or Stamp
// must be present; TimestampNs wins when both are.
type IndexRecord struct {
	TimestampNs *uint64 `json:"ts_ns,omitempty"`
	Stamp       *Stamp  `json:"stamp,omitempty"`
	Ref         string  `json:"ref"`
}

// Timestamp returns the record's capture time in nanoseconds.
func (r IndexRecord) Timestamp() (uint64, error) {
	switch {
	case r.TimestampNs != nil:
		return *r.TimestampNs, nil
	case r.Stamp != nil:
		return domain.StampToNanos(r.Stamp.Sec, r.Stamp.Nanosec), nil
	default:
		return 0, errors.New("record has neither ts_ns nor stamp")
	}
}

// IndexReaderOptions configures an IndexReader.
type IndexReaderOptions struct {
	// Follow keeps reading as the file grows instead of stopping at EOF.
	Follow bool

	// IdleTimeout ends a followed file after this long without new data.
	// Zero waits until the context is canceled.
	IdleTimeout time.Duration

	Logger log.Logger
}

// IndexReader implements ports.FrameSource over a JSON-lines frame index.
// The payload of every record is its Ref.
type IndexReader struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	partial []byte
	line    int
	opts    IndexReaderOptions
	watcher *fsnotify.Watcher
	logger  log.Logger
}

var _ ports.FrameSource = (*IndexReader)(nil)

// OpenIndex opens the index file at path.
func OpenIndex(path string, opts IndexReaderOptions) (*IndexReader, error) {
	path = filepath.Clean(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	r := &IndexReader{
		path:   path,
		file:   f,
		reader: bufio.NewReaderSize(f, 64*1024),
		opts:   opts,
		logger: logger,
	}

	if opts.Follow {
		// Events are filtered by name in wait.
		w, err := fsnotify.NewWatcher()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Add(filepath.Dir(path)); err != nil {
			w.Close()
			f.Close()
			return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
		}
		r.watcher = w
	}

	return r, nil
}

// Next returns the next record.
// Returns io.EOF at the end of the file, or in follow mode once IdleTimeout
// passes without growth.
func (r *IndexReader) Next(ctx context.Context) (ports.SourceRecord, error) {
	for {
		select {
		case <-ctx.Done():
			return ports.SourceRecord{}, ctx.Err()
		default:
		}

		chunk, err := r.reader.ReadBytes('\n')
		if err == nil {
			line := chunk
			if len(r.partial) > 0 {
				line = append(r.partial, chunk...)
				r.partial = nil
			}
			rec, ok, perr := r.parse(line)
			if perr != nil {
				return ports.SourceRecord{}, perr
			}
			if ok {
				return rec, nil
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			return ports.SourceRecord{}, err
		}

		r.partial = append(r.partial, chunk...)

		if !r.opts.Follow {
			return r.finish()
		}
		if werr := r.wait(ctx); werr != nil {
			if errors.Is(werr, io.EOF) {
				return r.finish()
			}
			return ports.SourceRecord{}, werr
		}
	}
}

// Line returns the number of lines consumed so far.
func (r *IndexReader) Line() int {
	return r.line
}

// Close releases the file and the watcher.
func (r *IndexReader) Close() error {
	var errs []error
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// finish parses an unterminated last line, if any, then reports io.EOF.
func (r *IndexReader) finish() (ports.SourceRecord, error) {
	if len(r.partial) == 0 {
		return ports.SourceRecord{}, io.EOF
	}
	line := r.partial
	r.partial = nil
	rec, ok, err := r.parse(line)
	if err != nil {
		return ports.SourceRecord{}, err
	}
	if !ok {
		return ports.SourceRecord{}, io.EOF
	}
	return rec, nil
}

// parse decodes one line. Blank lines yield ok == false.
func (r *IndexReader) parse(line []byte) (ports.SourceRecord, bool, error) {
	r.line++
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return ports.SourceRecord{}, false, nil
	}

	var rec IndexRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return ports.SourceRecord{}, false, fmt.Errorf("%s:%d: bad index line: %w", r.path, r.line, err)
	}
	ts, err := rec.Timestamp()
	if err != nil {
		return ports.SourceRecord{}, false, fmt.Errorf("%s:%d: %w", r.path, r.line, err)
	}
	return ports.SourceRecord{Timestamp: ts, Payload: rec.Ref}, true, nil
}

// wait blocks until the file is written to.
// Returns io.EOF when IdleTimeout expires.
func (r *IndexReader) wait(ctx context.Context) error {
	var idle <-chan time.Time
	if r.opts.IdleTimeout > 0 {
		t := time.NewTimer(r.opts.IdleTimeout)
		defer t.Stop()
		idle = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-idle:
			r.logger.Debug("index idle, stopping", log.String("path", r.path))
			return io.EOF

		case event, ok := <-r.watcher.Events:
			if !ok {
				return io.EOF
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			return nil

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return io.EOF
			}
			r.logger.Warn("index watcher error", log.String("path", r.path), log.Err(err))
		}
	}
}
