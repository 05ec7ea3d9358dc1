package store

import "container/heap"

// Entry is one (timestamp, id) element of an Index.
type Entry struct {
	Timestamp uint64
	ID        uint64
}

// less orders entries by timestamp, then by id so that equal timestamps
// still drain in a fixed order.
func (e Entry) less(o Entry) bool {
	if e.Timestamp != o.Timestamp {
		return e.Timestamp < o.Timestamp
	}
	return e.ID < o.ID
}

// Index is a min-ordered priority queue of entries.
// The zero value is an empty index ready for use.
type Index struct {
	h entryHeap
}

// Push adds an entry in O(log n).
func (ix *Index) Push(e Entry) {
	heap.Push(&ix.h, e)
}

// Peek returns the earliest entry without removing it.
func (ix *Index) Peek() (Entry, bool) {
	if len(ix.h) == 0 {
		return Entry{}, false
	}
	return ix.h[0], true
}

// Pop removes and returns the earliest entry in O(log n).
func (ix *Index) Pop() (Entry, bool) {
	if len(ix.h) == 0 {
		return Entry{}, false
	}
	return heap.Pop(&ix.h).(Entry), true
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.h)
}

// entryHeap implements heap.Interface.
type entryHeap []Entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
