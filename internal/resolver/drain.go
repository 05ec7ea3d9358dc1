// Package resolver pairs the pending frames of two channels in timestamp order.
package resolver

import (
	"github.com/bft-labs/framesync/internal/domain"
	"github.com/bft-labs/framesync/internal/store"
)

// Outlet receives the decisions Drain makes. Every frame Drain takes out of a
// partition is passed to exactly one call: Emit (as half of a pair) or Drop.
type Outlet interface {
	Emit(pair domain.Pair)
	Drop(frame domain.Frame, reason domain.DropReason)
}

// Result summarizes one Drain call.
type Result struct {
	Matched int
	Dropped int
}

// Drain matches the earliest frames of both partitions until one of them is
// empty. If the two earliest timestamps are within tolerance (inclusive) both
// frames are emitted as a pair; otherwise the older of the two can no longer
// find a partner and is dropped as stale.
//
// Drain is deterministic in the timestamps held by the partitions and is a
// no-op when either partition is empty. An error means a partition's set and
// index disagreed; the partitions must not be used afterwards.
func Drain(primary, secondary *store.Partition, tolerance uint64, out Outlet) (Result, error) {
	var res Result
	for {
		p, ok := primary.PeekMin()
		if !ok {
			return res, nil
		}
		s, ok := secondary.PeekMin()
		if !ok {
			return res, nil
		}

		if domain.AbsDiff(p.Timestamp, s.Timestamp) <= tolerance {
			pf, _, err := primary.PopMin()
			if err != nil {
				return res, err
			}
			sf, _, err := secondary.PopMin()
			if err != nil {
				out.Drop(pf, domain.DropStale)
				res.Dropped++
				return res, err
			}
			out.Emit(domain.Pair{Primary: pf, Secondary: sf})
			res.Matched++
			continue
		}

		older := secondary
		if p.Timestamp < s.Timestamp {
			older = primary
		}
		f, _, err := older.PopMin()
		if err != nil {
			return res, err
		}
		out.Drop(f, domain.DropStale)
		res.Dropped++
	}
}
