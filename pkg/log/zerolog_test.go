package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf))

	z.Info("pair emitted",
		String("channel", "primary"),
		Uint64("ts", 105_000_000),
		Int("pending", 3),
		Bool("queued", true),
		Duration("delta", 5*time.Millisecond),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v (%s)", err, buf.String())
	}

	if got["message"] != "pair emitted" {
		t.Errorf("message = %v, want pair emitted", got["message"])
	}
	if got["channel"] != "primary" {
		t.Errorf("channel = %v, want primary", got["channel"])
	}
	if got["ts"] != float64(105_000_000) {
		t.Errorf("ts = %v, want 105000000", got["ts"])
	}
	if got["pending"] != float64(3) {
		t.Errorf("pending = %v, want 3", got["pending"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v, want boom", got["error"])
	}
}

func TestZerologAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	z.Debug("dropped frame")
	z.Info("state transition")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered, got %q", buf.String())
	}

	z.Warn("capacity exceeded")
	if buf.Len() == 0 {
		t.Fatal("expected warn to be written")
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("session", "abc"))

	z.Info("started")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["session"] != "abc" {
		t.Errorf("session = %v, want abc", got["session"])
	}
}
