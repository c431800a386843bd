package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_ComputeFingerprint_invariantUnderHopIncrement(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := makeHeader()
		h.Hops = byte(rapid.IntRange(0, 254).Draw(t, "hops"))
		payload := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "payload")

		buf := make([]byte, FixedHeaderSize+len(payload))
		PutHeader(buf, h)
		copy(buf[FixedHeaderSize:], payload)

		before := ComputeFingerprint(buf)

		h.Hops++
		PutHeader(buf, h)
		after := ComputeFingerprint(buf)

		assert.Equal(t, before, after, "fingerprint must be invariant across a single hop increment")
	})
}

func Test_ComputeFingerprint_distinguishesDifferentPayloads(t *testing.T) {
	h := makeHeader()
	buf1 := make([]byte, FixedHeaderSize+4)
	PutHeader(buf1, h)
	copy(buf1[FixedHeaderSize:], []byte("abcd"))

	buf2 := make([]byte, FixedHeaderSize+4)
	PutHeader(buf2, h)
	copy(buf2[FixedHeaderSize:], []byte("wxyz"))

	assert.NotEqual(t, ComputeFingerprint(buf1), ComputeFingerprint(buf2))
}
