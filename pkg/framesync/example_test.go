package framesync_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/framesync/pkg/framesync"
)

// ExampleNew demonstrates pairing a color and a depth stream.
func ExampleNew() {
	sink := framesync.SinkFunc(func(p framesync.Pair) {
		fmt.Printf("pair %v+%v delta=%dns\n",
			p.Primary.Payload, p.Secondary.Payload, p.Delta())
	})

	s, err := framesync.New(framesync.DefaultConfig(), sink)
	if err != nil {
		fmt.Printf("failed to create synchronizer: %v\n", err)
		return
	}
	if err := s.Start(context.Background()); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}
	defer func() { _ = s.Stop() }()

	ms := uint64(time.Millisecond)
	_ = s.IngestPrimary(1000*ms, "color-1")
	_ = s.IngestSecondary(1004*ms, "depth-1")
	_ = s.IngestPrimary(1033*ms, "color-2")
	_ = s.IngestSecondary(1060*ms, "depth-2")

	fmt.Printf("pending primary=%d secondary=%d\n",
		s.Pending(framesync.Primary), s.Pending(framesync.Secondary))

	// Output:
	// pair color-1+depth-1 delta=4000000ns
	// pending primary=0 secondary=1
}

// Example_withEventHandler demonstrates how to observe drops and capacity
// breaches.
func Example_withEventHandler() {
	cfg := framesync.DefaultConfig()
	cfg.SoftCapacity = 2

	s, err := framesync.New(cfg,
		framesync.SinkFunc(func(framesync.Pair) {}),
		framesync.WithEventHandler(&myEventHandler{}),
	)
	if err != nil {
		fmt.Printf("failed to create synchronizer: %v\n", err)
		return
	}
	_ = s.Start(context.Background())

	for i := uint64(0); i < 3; i++ {
		_ = s.IngestPrimary(i*uint64(time.Second), i)
	}
	_ = s.Stop()

	// Output:
	// capacity exceeded on primary: 3 pending
	// dropped primary frame 1: shutdown
	// dropped primary frame 2: shutdown
	// dropped primary frame 3: shutdown
}

// myEventHandler implements framesync.EventHandler.
type myEventHandler struct {
	framesync.BaseEventHandler // Embed for no-op defaults
}

func (h *myEventHandler) OnCapacityExceeded(event framesync.CapacityEvent) {
	fmt.Printf("capacity exceeded on %s: %d pending\n", event.Channel, event.Pending)
}

func (h *myEventHandler) OnDrop(event framesync.DropEvent) {
	fmt.Printf("dropped %s frame %d: %s\n", event.Frame.Channel, event.Frame.ID, event.Reason)
}
