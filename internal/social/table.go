// Package social maintains the social-distance table: a bounded-size,
// periodically-refreshed snapshot mapping public-key bit prefixes to
// social distance, used to decide how much priority boost a verified
// signature earns a packet.
package social

import (
	"crypto/sha256"
	"sort"
	"sync/atomic"
	"time"

	"github.com/allnet-io/ad/internal/contacts"
	"github.com/allnet-io/ad/internal/priority"
)

// DefaultUpdatePeriod is how often the table is rebuilt from the
// contact store when the caller has no stronger preference.
const DefaultUpdatePeriod = 30 * time.Second

// DefaultMaxBytes bounds a snapshot's footprint.
const DefaultMaxBytes = 30_000

// DefaultMaxChecks bounds how many signature verifications a single
// Connection lookup may perform.
const DefaultMaxChecks = 5

// bytesPerEntry is this package's estimate of a snapshot entry's
// on-disk footprint, used to translate a byte budget into an
// entry-count budget. It is deliberately generous (entries are
// typically much smaller) so the byte budget is conservative rather
// than exact.
const bytesPerEntry = 96

// entry is one key in a social-table snapshot: its derived address
// prefix (for matching against a packet's source address), its public
// key material, and its social distance.
type entry struct {
	address  [8]byte
	bits     byte
	pubKey   []byte
	algo     byte
	tier     int
}

// Snapshot is an immutable view of the social table, as produced by a
// single Update call. Callers are expected to use a Snapshot only for
// the dispatch iteration that fetched it; nothing in this package
// enforces that, but it falls out naturally from Table's
// atomic-pointer handoff.
type Snapshot struct {
	entries   []entry
	maxChecks int
}

// addressOf derives an 8-byte address from a public key: the leading
// bytes of SHA-256(pubKey). This package never establishes identities
// itself; it is purely a matching key for prefix lookups, consistent
// across any process that derives addresses the same way from the
// same public keys.
func addressOf(pubKey []byte) [8]byte {
	sum := sha256.Sum256(pubKey)
	var addr [8]byte
	copy(addr[:], sum[:8])
	return addr
}

// Init allocates an empty snapshot with the given check budget.
func Init(maxChecks int) *Snapshot {
	if maxChecks <= 0 {
		maxChecks = DefaultMaxChecks
	}
	return &Snapshot{maxChecks: maxChecks}
}

// buildSnapshot constructs a snapshot from a set of loaded identities,
// trimming to maxBytes if necessary. When trimming is required, the
// farthest (highest-tier) entries are dropped first — a table that
// must shed entries should keep the socially closest ones, since
// those are the ones most likely to earn a packet a priority boost.
// This tie-breaking rule is recorded as a design decision in
// DESIGN.md.
func buildSnapshot(ids []contacts.Identity, maxBytes, maxChecks int) *Snapshot {
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		algo := algoByteFromIdentity(id)
		if algo == 0 {
			continue
		}
		entries = append(entries, entry{
			address: addressOf(id.PubKey),
			bits:    id.Bits,
			pubKey:  id.PubKey,
			algo:    algo,
			tier:    id.Tier,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].tier < entries[j].tier })

	if maxBytes > 0 {
		budget := maxBytes / bytesPerEntry
		if budget < len(entries) {
			entries = entries[:budget]
		}
	}

	return &Snapshot{entries: entries, maxChecks: maxChecks}
}

func algoByteFromIdentity(id contacts.Identity) byte {
	return algoByte(id.Algo)
}

// bitsMatch reports whether the leading min(aBits, bBits) bits of a
// and b are equal.
func bitsMatch(a [8]byte, aBits byte, b [8]byte, bBits byte) bool {
	n := aBits
	if bBits < n {
		n = bBits
	}
	full := n / 8
	for i := byte(0); i < full; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	rem := n % 8
	if rem == 0 {
		return true
	}
	mask := byte(0xFF << (8 - rem))
	return a[full]&mask == b[full]&mask
}

// Connection searches snap for public keys whose derived address
// prefix matches src in its first srcNBits bits, and verifies sig
// against each such key (in
// ascending-tier order, so the closest match is tried first) until
// one succeeds or the snapshot's per-lookup check budget is
// exhausted. It returns the social distance of the matched key, or
// priority.UnknownSocialTier with valid=false if no key verifies.
func Connection(snap *Snapshot, signedRegion []byte, src [8]byte, srcNBits byte, sigAlgo byte, sig []byte) (int, bool) {
	if snap == nil {
		return priority.UnknownSocialTier, false
	}

	checks := 0
	for _, e := range snap.entries {
		if e.algo != sigAlgo {
			continue
		}
		if !bitsMatch(e.address, e.bits, src, srcNBits) {
			continue
		}
		if checks >= snap.maxChecks {
			break
		}
		checks++

		if verify(sigAlgo, e.pubKey, signedRegion, sig) {
			return e.tier, true
		}
	}

	return priority.UnknownSocialTier, false
}

// Table owns the live social-table snapshot used by the dispatcher,
// handed off by atomic pointer swap so a rebuild running on a helper
// goroutine never exposes a partially built table to the single
// dispatch goroutine.
type Table struct {
	current     atomic.Pointer[Snapshot]
	contactsDir string
	maxBytes    int
	maxChecks   int
}

// NewTable constructs a Table backed by the given contact directory,
// initially holding an empty snapshot.
func NewTable(contactsDir string, maxBytes, maxChecks int) *Table {
	t := &Table{contactsDir: contactsDir, maxBytes: maxBytes, maxChecks: maxChecks}
	t.current.Store(Init(maxChecks))
	return t
}

// Snapshot returns the table's current snapshot. The dispatcher calls
// this fresh for each packet that needs a social lookup, so it always
// observes either the old or the new snapshot, never a partial one.
func (t *Table) Snapshot() *Snapshot {
	return t.current.Load()
}

// Update rebuilds the table from the contact store and atomically
// replaces the live snapshot, returning the next wall-clock deadline
// at which Update should be called again.
func (t *Table) Update(period time.Duration) (time.Time, error) {
	if period <= 0 {
		period = DefaultUpdatePeriod
	}

	ids, err := contacts.Load(t.contactsDir)
	if err != nil {
		// Keep serving the previous snapshot; a missing or
		// unreadable contact directory is not fatal to the daemon.
		return time.Now().Add(period), err
	}

	t.current.Store(buildSnapshot(ids, t.maxBytes, t.maxChecks))
	return time.Now().Add(period), nil
}
