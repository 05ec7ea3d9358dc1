package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "color.idx")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return path
}

func TestIndexReader_ReadsRecords(t *testing.T) {
	path := writeIndex(t, strings.Join([]string{
		`{"ts_ns":1000,"ref":"a.png"}`,
		``,
		`{"stamp":{"sec":2,"nanosec":5},"ref":"b.png"}`,
		`{"ts_ns":3000,"stamp":{"sec":9,"nanosec":9},"ref":"c.png"}`,
	}, "\n"))

	r, err := OpenIndex(path, IndexReaderOptions{})
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer r.Close()

	want := []struct {
		ts  uint64
		ref string
	}{
		{1000, "a.png"},
		{2_000_000_005, "b.png"},
		{3000, "c.png"},
	}

	ctx := context.Background()
	for i, w := range want {
		rec, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next() #%d error = %v", i, err)
		}
		if rec.Timestamp != w.ts || rec.Payload != w.ref {
			t.Errorf("Next() #%d = %+v, want ts=%d ref=%s", i, rec, w.ts, w.ref)
		}
	}

	if _, err := r.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
	if r.Line() != 4 {
		t.Errorf("Line() = %d, want 4", r.Line())
	}
}

func TestIndexReader_BadLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"malformed json", "{\"ts_ns\":1}\n{nope\n", ":2: bad index line"},
		{"missing timestamp", "{\"ref\":\"x\"}\n", "neither ts_ns nor stamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := OpenIndex(writeIndex(t, tt.content), IndexReaderOptions{})
			if err != nil {
				t.Fatalf("OpenIndex() error = %v", err)
			}
			defer r.Close()

			var lastErr error
			for i := 0; i < 3; i++ {
				if _, lastErr = r.Next(context.Background()); lastErr != nil {
					break
				}
			}
			if lastErr == nil || !strings.Contains(lastErr.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want containing %q", lastErr, tt.wantMsg)
			}
		})
	}
}

func TestIndexReader_MissingFile(t *testing.T) {
	_, err := OpenIndex(filepath.Join(t.TempDir(), "absent.idx"), IndexReaderOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenIndex() error = %v, want os.ErrNotExist", err)
	}
}

func TestIndexReader_FollowSeesAppends(t *testing.T) {
	path := writeIndex(t, `{"ts_ns":1,"ref":"first"}`+"\n")

	r, err := OpenIndex(path, IndexReaderOptions{Follow: true, IdleTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rec, err := r.Next(ctx); err != nil || rec.Payload != "first" {
		t.Fatalf("Next() = %+v, %v", rec, err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer f.Close()
		// Written in two parts to exercise partial line handling.
		_, _ = f.WriteString(`{"ts_ns":2,`)
		_ = f.Sync()
		time.Sleep(20 * time.Millisecond)
		_, _ = f.WriteString(`"ref":"second"}` + "\n")
	}()

	rec, err := r.Next(ctx)
	if err != nil {
		t.Fatalf("Next() after append error = %v", err)
	}
	if rec.Timestamp != 2 || rec.Payload != "second" {
		t.Errorf("Next() = %+v, want ts=2 ref=second", rec)
	}
}

func TestIndexReader_FollowIdleTimeout(t *testing.T) {
	r, err := OpenIndex(writeIndex(t, ""), IndexReaderOptions{Follow: true, IdleTimeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer r.Close()

	if _, err := r.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestIndexReader_FollowCanceled(t *testing.T) {
	r, err := OpenIndex(writeIndex(t, ""), IndexReaderOptions{Follow: true})
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}
