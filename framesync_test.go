package framesync_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/framesync"
)

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "color.idx")
	secondary := filepath.Join(dir, "depth.idx")
	if err := os.WriteFile(primary, []byte(`{"ts_ns":100000000,"ref":"c0"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(secondary, []byte(`{"stamp":{"sec":0,"nanosec":105000000},"ref":"d0"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := framesync.DefaultReplayConfig()
	cfg.Primary = primary
	cfg.Secondary = secondary

	var out bytes.Buffer
	summary, err := framesync.Replay(context.Background(), cfg, &out)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if summary.Stats.Matched != 1 {
		t.Errorf("Matched = %d, want 1", summary.Stats.Matched)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"delta_ns":5000000`)) {
		t.Errorf("output = %s", out.String())
	}
}

func TestDefaultConfig(t *testing.T) {
	if err := framesync.DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}
