// Package pqueue implements an indexed binary heap. Besides the usual
// insert and pop-best operations it keeps a key→slot index so that the
// priority of any queued key can be changed, or the key removed, in
// O(log n) without scanning the heap.
//
// Entries are ordered by priority first and by a caller-supplied sequence
// number second: among equal priorities the smaller sequence wins. A queue
// is either a max-queue (greatest priority first) or a min-queue (smallest
// priority first); the sequence tie-break is the same in both.
//
// A Queue is not safe for concurrent use.
package pqueue

import (
	"errors"

	"golang.org/x/exp/constraints"
)

// ErrDuplicateKey is returned by Insert when the key is already queued.
var ErrDuplicateKey = errors.New("pqueue: key already present")

// Item is a queued entry as seen by callers.
type Item[K comparable, P constraints.Ordered] struct {
	Key      K
	Priority P
	Seq      uint64
}

// Queue is an indexed priority queue over keys of type K with priorities
// of type P.
type Queue[K comparable, P constraints.Ordered] struct {
	items []Item[K, P]
	index map[K]int
	// ranksAbove reports whether priority a is served before priority b.
	ranksAbove func(a, b P) bool
}

// NewMax returns a queue that serves the greatest priority first.
func NewMax[K comparable, P constraints.Ordered]() *Queue[K, P] {
	return &Queue[K, P]{
		index:      make(map[K]int),
		ranksAbove: func(a, b P) bool { return a > b },
	}
}

// NewMin returns a queue that serves the smallest priority first.
func NewMin[K comparable, P constraints.Ordered]() *Queue[K, P] {
	return &Queue[K, P]{
		index:      make(map[K]int),
		ranksAbove: func(a, b P) bool { return a < b },
	}
}

// Len returns the number of queued entries.
func (q *Queue[K, P]) Len() int { return len(q.items) }

// Empty reports whether the queue holds no entries.
func (q *Queue[K, P]) Empty() bool { return len(q.items) == 0 }

// Contains reports whether key is queued.
func (q *Queue[K, P]) Contains(key K) bool {
	_, ok := q.index[key]
	return ok
}

// Get returns the entry queued under key.
func (q *Queue[K, P]) Get(key K) (Item[K, P], bool) {
	i, ok := q.index[key]
	if !ok {
		return Item[K, P]{}, false
	}
	return q.items[i], true
}

// Insert queues key with the given priority and tie-break sequence. It
// fails with ErrDuplicateKey, leaving the queue unchanged, if key is
// already present.
func (q *Queue[K, P]) Insert(key K, priority P, seq uint64) error {
	if _, ok := q.index[key]; ok {
		return ErrDuplicateKey
	}
	q.items = append(q.items, Item[K, P]{Key: key, Priority: priority, Seq: seq})
	i := len(q.items) - 1
	q.index[key] = i
	q.up(i)
	return nil
}

// Peek returns the best entry without removing it.
func (q *Queue[K, P]) Peek() (Item[K, P], bool) {
	if len(q.items) == 0 {
		return Item[K, P]{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the best entry. The boolean is false when the
// queue is empty.
func (q *Queue[K, P]) Pop() (Item[K, P], bool) {
	if len(q.items) == 0 {
		return Item[K, P]{}, false
	}
	best := q.items[0]
	q.removeAt(0)
	return best, true
}

// Update changes the priority of key and restores heap order. It returns
// false if key is not queued. The entry keeps its original sequence, so it
// does not lose its place among equal priorities.
func (q *Queue[K, P]) Update(key K, priority P) bool {
	i, ok := q.index[key]
	if !ok {
		return false
	}
	old := q.items[i].Priority
	q.items[i].Priority = priority
	if q.ranksAbove(priority, old) {
		q.up(i)
	} else {
		q.down(i)
	}
	return true
}

// Remove deletes key from the queue. It returns false if key is not queued.
func (q *Queue[K, P]) Remove(key K) bool {
	i, ok := q.index[key]
	if !ok {
		return false
	}
	q.removeAt(i)
	return true
}

// Keys returns a snapshot of the queued keys in heap order (not priority
// order).
func (q *Queue[K, P]) Keys() []K {
	keys := make([]K, len(q.items))
	for i, it := range q.items {
		keys[i] = it.Key
	}
	return keys
}

// Clear drops every entry.
func (q *Queue[K, P]) Clear() {
	q.items = nil
	q.index = make(map[K]int)
}

// removeAt evicts the entry in slot i. The last entry takes its place and
// is sifted in whichever direction the heap property requires: an arbitrary
// leaf placed in an interior slot may belong above or below it.
func (q *Queue[K, P]) removeAt(i int) {
	last := len(q.items) - 1
	evicted := q.items[i].Key
	if i != last {
		q.items[i] = q.items[last]
		q.index[q.items[i].Key] = i
	}
	q.items[last] = Item[K, P]{}
	q.items = q.items[:last]
	delete(q.index, evicted)
	if i < len(q.items) {
		q.down(i)
		q.up(i)
	}
}

// before reports whether slot i must be served before slot j.
func (q *Queue[K, P]) before(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.Priority != b.Priority {
		return q.ranksAbove(a.Priority, b.Priority)
	}
	return a.Seq < b.Seq
}

func (q *Queue[K, P]) swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.index[q.items[i].Key] = i
	q.index[q.items[j].Key] = j
}

func (q *Queue[K, P]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.before(i, parent) {
			return
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *Queue[K, P]) down(i int) {
	n := len(q.items)
	for {
		best := i
		if l := 2*i + 1; l < n && q.before(l, best) {
			best = l
		}
		if r := 2*i + 2; r < n && q.before(r, best) {
			best = r
		}
		if best == i {
			return
		}
		q.swap(i, best)
		i = best
	}
}

// Verify checks the heap property and the consistency of the key index.
// It is meant for tests and debug tooling; it runs in O(n).
func (q *Queue[K, P]) Verify() error {
	if len(q.index) != len(q.items) {
		return errors.New("pqueue: index size does not match heap size")
	}
	for i, it := range q.items {
		if j, ok := q.index[it.Key]; !ok || j != i {
			return errors.New("pqueue: index out of sync with heap")
		}
		if i > 0 && q.before(i, (i-1)/2) {
			return errors.New("pqueue: heap order violated")
		}
	}
	return nil
}
