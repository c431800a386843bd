// Package dedupe avoids re-forwarding duplicate packets that arrive
// too close together: a bounded-capacity table of recently seen
// packet fingerprints, each remembered for a fixed retention window
// measured from its first sighting.
package dedupe

import (
	"time"

	"github.com/allnet-io/ad/internal/packet"
)

// DefaultTTL is the retention window: an entry older than this is
// logically absent, even if its slot has not yet been evicted by
// capacity pressure.
const DefaultTTL = 60 * time.Second

// DefaultCapacity bounds how many fingerprints are tracked at once.
// Once full, the least-recently-inserted entry is evicted to make
// room for a new one.
const DefaultCapacity = 4096

type entry struct {
	fp        packet.Fingerprint
	firstSeen time.Time
}

// Filter is the duplicate-suppression table. It is owned exclusively
// by the single dispatch goroutine and so needs no internal locking.
type Filter struct {
	ttl      time.Duration
	capacity int
	ring     []entry
	next     int // index where the next insertion lands
	index    map[packet.Fingerprint]int
	now      func() time.Time
}

// New constructs a Filter with the given capacity and retention TTL.
func New(capacity int, ttl time.Duration) *Filter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Filter{
		ttl:      ttl,
		capacity: capacity,
		ring:     make([]entry, 0, capacity),
		index:    make(map[packet.Fingerprint]int, capacity),
		now:      time.Now,
	}
}

// Record checks fp against the table and records it. If no entry
// matches fp, or the matching entry is older than the filter's TTL, a
// fresh entry is inserted (or the stale slot is reused in place with
// its first-seen time reset to now, since a stale entry is logically a
// different sighting; the slot keeps its original place in eviction
// order) and Record returns 0. Otherwise the packet is
// a duplicate within the retention window and Record returns how long
// ago it first arrived; the stored timestamp is left untouched, so a
// storm of identical packets is silenced for exactly the TTL measured
// from the very first arrival.
func (f *Filter) Record(fp packet.Fingerprint) time.Duration {
	now := f.now()

	if i, ok := f.index[fp]; ok {
		age := now.Sub(f.ring[i].firstSeen)
		if age < f.ttl {
			return age
		}
		// Stale: treat as a fresh sighting.
		f.ring[i].firstSeen = now
		return 0
	}

	f.insert(fp, now)
	return 0
}

func (f *Filter) insert(fp packet.Fingerprint, now time.Time) {
	if len(f.ring) < f.capacity {
		f.index[fp] = len(f.ring)
		f.ring = append(f.ring, entry{fp: fp, firstSeen: now})
		return
	}

	victim := f.ring[f.next]
	delete(f.index, victim.fp)

	f.ring[f.next] = entry{fp: fp, firstSeen: now}
	f.index[fp] = f.next

	f.next++
	if f.next >= f.capacity {
		f.next = 0
	}
}

// Len reports how many fingerprints are currently tracked (including
// any that have aged past the TTL but not yet been evicted).
func (f *Filter) Len() int {
	return len(f.ring)
}
