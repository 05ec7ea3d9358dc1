// Package framesync provides an embeddable two-stream timestamp synchronizer.
//
// Frames arrive independently, and possibly out of order, on two channels
// ([Primary] and [Secondary]). The synchronizer pairs frames whose timestamps
// lie within a tolerance and hands each [Pair] to a [Sink]. Frames that can no
// longer find a partner are dropped, so memory stays bounded by the amount of
// skew between the streams.
//
// # Basic Usage
//
//	sink := framesync.SinkFunc(func(p framesync.Pair) {
//	    detect(p.Primary.Payload, p.Secondary.Payload)
//	})
//
//	s, err := framesync.New(framesync.DefaultConfig(), sink)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//
//	// From the color camera callback:
//	_ = s.IngestPrimary(stampNanos, colorImage)
//	// From the depth camera callback:
//	_ = s.IngestSecondary(stampNanos, depthImage)
//
// # Matching
//
// After every ingestion the synchronizer compares the earliest pending frame
// of each channel. If their timestamps differ by at most [Config.Tolerance]
// they are emitted together; otherwise the older one is dropped. This repeats
// until one channel has nothing pending.
//
// # Concurrency
//
// Ingest is safe to call from any number of goroutines. One lock covers
// insertion and the complete matching pass. The sink runs inside that lock
// unless [Config.EmitQueueSize] is positive, in which case a single worker
// goroutine delivers pairs in match order. Either way the sink must not call
// back into the synchronizer.
//
// # Memory Bounds
//
// When one channel stalls the other accumulates pending frames. Crossing
// [Config.SoftCapacity] logs a warning and calls
// [EventHandler.OnCapacityExceeded]; setting [Config.MaxPending] additionally
// evicts the oldest frames of a channel that goes above the limit.
//
// # Lifecycle States
//
// A Synchronizer can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Frames are only accepted
// while running. Stop drops whatever is still pending.
package framesync
