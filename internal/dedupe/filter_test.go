package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/allnet-io/ad/internal/packet"
)

func fakeClock(start time.Time) (now func() time.Time, advance func(time.Duration)) {
	cur := start
	return func() time.Time { return cur },
		func(d time.Duration) { cur = cur.Add(d) }
}

func fp(b byte) packet.Fingerprint {
	var f packet.Fingerprint
	f[0] = b
	return f
}

func Test_Record_firstSightingReturnsZero(t *testing.T) {
	f := New(10, time.Minute)
	assert.Equal(t, time.Duration(0), f.Record(fp(1)))
}

func Test_Record_duplicateWithinTTLReturnsAge(t *testing.T) {
	f := New(10, time.Minute)
	now, advance := fakeClock(time.Now())
	f.now = now

	require.Equal(t, time.Duration(0), f.Record(fp(1)))
	advance(30 * time.Second)
	assert.Equal(t, 30*time.Second, f.Record(fp(1)))
}

func Test_Record_doesNotRefreshTimestamp(t *testing.T) {
	f := New(10, time.Minute)
	now, advance := fakeClock(time.Now())
	f.now = now

	f.Record(fp(1))
	advance(40 * time.Second)
	assert.Equal(t, 40*time.Second, f.Record(fp(1)))
	advance(10 * time.Second)
	// Still measured from first sight, not from the second Record call.
	assert.Equal(t, 50*time.Second, f.Record(fp(1)))
}

func Test_Record_exactly60sOldDoesNotSuppress(t *testing.T) {
	f := New(10, 60*time.Second)
	now, advance := fakeClock(time.Now())
	f.now = now

	f.Record(fp(1))
	advance(60 * time.Second)
	// Age has reached exactly the TTL: the entry is logically absent,
	// so this is treated as a fresh sighting, not a duplicate.
	assert.Equal(t, time.Duration(0), f.Record(fp(1)))
}

func Test_Record_evictsOldestInsertionOnceFull(t *testing.T) {
	f := New(3, time.Minute)

	f.Record(fp(1))
	f.Record(fp(2))
	f.Record(fp(3))
	require.Equal(t, 3, f.Len())

	f.Record(fp(4)) // evicts fp(1)
	assert.Equal(t, 3, f.Len())

	// fp(1) was evicted, so it is seen as new again.
	assert.Equal(t, time.Duration(0), f.Record(fp(1)))
}

// Property: submitting the same fingerprint twice in immediate
// succession is reported as a duplicate with a non-negative age
// strictly less than the TTL.
func Test_Record_repeatedSubmissionIsADuplicate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var f packet.Fingerprint
		for i := range f {
			f[i] = byte(rapid.IntRange(0, 255).Draw(t, "byte"))
		}
		gap := time.Duration(rapid.IntRange(0, 59_000).Draw(t, "gapMillis")) * time.Millisecond

		filt := New(16, 60*time.Second)
		now, advance := fakeClock(time.Now())
		filt.now = now

		require.Equal(t, time.Duration(0), filt.Record(f))
		advance(gap)
		age := filt.Record(f)
		assert.Equal(t, gap, age)
		assert.Less(t, age, 60*time.Second)
	})
}
