package framesync

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingPlugin struct {
	BasePlugin
	log     *[]string
	initErr error
	cfg     PluginConfig

	mu    sync.Mutex
	pairs int
}

func (p *recordingPlugin) Initialize(_ context.Context, cfg PluginConfig) error {
	*p.log = append(*p.log, "init "+p.Name())
	p.cfg = cfg
	return p.initErr
}

func (p *recordingPlugin) Shutdown(context.Context) error {
	*p.log = append(*p.log, "shutdown "+p.Name())
	return nil
}

func (p *recordingPlugin) OnPair(Pair) {
	p.mu.Lock()
	p.pairs++
	p.mu.Unlock()
}

func TestPlugins_OrderAndObservation(t *testing.T) {
	var calls []string
	a := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "a"}, log: &calls}
	b := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "b"}, log: &calls}

	s, err := New(DefaultConfig(), SinkFunc(func(Pair) {}), WithPlugin(a), WithPlugin(b))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_ = s.IngestPrimary(5*ms, nil)
	_ = s.IngestSecondary(6*ms, nil)

	if a.cfg.Stats().Matched != 1 {
		t.Errorf("PluginConfig.Stats() does not reflect the synchronizer")
	}
	if a.cfg.Tolerance != DefaultTolerance {
		t.Errorf("PluginConfig.Tolerance = %v, want %v", a.cfg.Tolerance, DefaultTolerance)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	want := []string{"init a", "init b", "shutdown b", "shutdown a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}

	if a.pairs != 1 || b.pairs != 1 {
		t.Errorf("observers saw %d and %d pairs, want 1 each", a.pairs, b.pairs)
	}
}

func TestPlugins_InitFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	a := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "a"}, log: &calls}
	b := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "b"}, log: &calls, initErr: boom}
	c := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "c"}, log: &calls}

	s, err := New(DefaultConfig(), SinkFunc(func(Pair) {}), WithPlugin(a), WithPlugin(b), WithPlugin(c))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v, want %v", err, boom)
	}
	if s.Status() != StateCrashed {
		t.Errorf("Status() = %v, want Crashed", s.Status())
	}
	if err := s.IngestPrimary(1, nil); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Ingest after failed Start error = %v, want ErrNotRunning", err)
	}

	want := []string{"init a", "init b", "shutdown a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestBasePlugin(t *testing.T) {
	p := BasePlugin{PluginName: "noop"}
	if p.Name() != "noop" {
		t.Errorf("Name() = %q", p.Name())
	}
	if err := p.Initialize(context.Background(), PluginConfig{}); err != nil {
		t.Errorf("Initialize() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

type failingShutdownPlugin struct {
	BasePlugin
	log *[]string
}

func (p *failingShutdownPlugin) Shutdown(context.Context) error {
	*p.log = append(*p.log, "shutdown "+p.Name())
	return errors.New("disk full")
}

func TestPlugins_ShutdownFailureContinuesOthers(t *testing.T) {
	var calls []string
	a := &recordingPlugin{BasePlugin: BasePlugin{PluginName: "a"}, log: &calls}
	b := &failingShutdownPlugin{BasePlugin: BasePlugin{PluginName: "b"}, log: &calls}

	s, err := New(DefaultConfig(), SinkFunc(func(Pair) {}), WithPlugin(a), WithPlugin(b))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v, plugin shutdown errors are logged only", err)
	}
	if s.Status() != StateStopped {
		t.Errorf("Status() = %v, want Stopped", s.Status())
	}

	want := []string{"init a", "shutdown b", "shutdown a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSynchronizer_RapidStartStop(t *testing.T) {
	s, err := New(DefaultConfig(), SinkFunc(func(Pair) {}), WithPlugin(BasePlugin{PluginName: "noop"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("cycle %d Start() error = %v", i, err)
		}
		if err := s.Stop(); err != nil {
			t.Fatalf("cycle %d Stop() error = %v", i, err)
		}
	}
	if s.Status() != StateStopped {
		t.Errorf("Status() = %v, want Stopped", s.Status())
	}
}
