package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func makeHeader() Header {
	return Header{
		Version:     1,
		MessageType: TypeData,
		Hops:        0,
		MaxHops:     5,
		SrcNBits:    16,
		DstNBits:    16,
		SigAlgo:     SigNone,
	}
}

func Test_IsValidMessage_tooShort(t *testing.T) {
	buf := make([]byte, FixedHeaderSize-1)
	assert.False(t, IsValidMessage(buf))
}

func Test_IsValidMessage_plainData(t *testing.T) {
	buf := make([]byte, FixedHeaderSize+10)
	PutHeader(buf, makeHeader())
	assert.True(t, IsValidMessage(buf))
}

func Test_IsValidMessage_transportSubfieldsMustFit(t *testing.T) {
	h := makeHeader()
	h.Transport = TransportAckID // wants 8 extra bytes

	buf := make([]byte, FixedHeaderSize+4) // too short for the ack id
	PutHeader(buf, h)
	assert.False(t, IsValidMessage(buf))

	buf = make([]byte, FixedHeaderSize+8)
	PutHeader(buf, h)
	assert.True(t, IsValidMessage(buf))
}

func Test_IsValidMessage_signatureExactFit(t *testing.T) {
	h := makeHeader()
	h.SigAlgo = SigEd25519

	const sigLen = 5
	payload := []byte("hello")
	buf := make([]byte, FixedHeaderSize+len(payload)+sigLen+2)
	PutHeader(buf, h)
	copy(buf[FixedHeaderSize:], payload)
	sigStart := len(buf) - 2 - sigLen
	for i := 0; i < sigLen; i++ {
		buf[sigStart+i] = byte(0xA0 + i)
	}
	buf[len(buf)-2] = 0
	buf[len(buf)-1] = sigLen

	require.True(t, IsValidMessage(buf))

	region := SignedRegion(buf, h)
	assert.Equal(t, FixedHeaderSize+len(payload), len(buf)-2-sigLen)
	assert.Equal(t, payload, region)

	sig := Signature(buf)
	assert.Len(t, sig, sigLen)
}

func Test_IsValidMessage_signatureOversizedClaim(t *testing.T) {
	h := makeHeader()
	h.SigAlgo = SigEd25519

	buf := make([]byte, FixedHeaderSize+4)
	PutHeader(buf, h)
	// Claims a signature far larger than what is actually present.
	buf[len(buf)-2] = 0
	buf[len(buf)-1] = 200

	assert.False(t, IsValidMessage(buf), "an oversized signature claim must be dropped, not forwarded")
}

func Test_IsValidMessage_mgmtNeedsSubHeader(t *testing.T) {
	h := makeHeader()
	h.MessageType = TypeMgmt

	buf := make([]byte, FixedHeaderSize)
	PutHeader(buf, h)
	assert.False(t, IsValidMessage(buf))

	buf = make([]byte, FixedHeaderSize+MgmtHeaderSize)
	PutHeader(buf, h)
	buf[FixedHeaderSize] = MgmtBeacon
	assert.True(t, IsValidMessage(buf))
}

func Test_IsValidMessage_dataReqBitmapsMustFit(t *testing.T) {
	h := makeHeader()
	h.MessageType = TypeDataReq

	const dstBits, srcBits, midBits = 8, 4, 0
	need := DataRequestSize(dstBits, srcBits, midBits)

	buf := make([]byte, FixedHeaderSize+need-1)
	PutHeader(buf, h)
	buf[FixedHeaderSize+16] = dstBits
	buf[FixedHeaderSize+17] = srcBits
	buf[FixedHeaderSize+18] = midBits
	assert.False(t, IsValidMessage(buf))

	buf = make([]byte, FixedHeaderSize+need)
	PutHeader(buf, h)
	buf[FixedHeaderSize+16] = dstBits
	buf[FixedHeaderSize+17] = srcBits
	buf[FixedHeaderSize+18] = midBits
	require.True(t, IsValidMessage(buf))

	req := ParseDataRequest(buf[FixedHeaderSize:])
	assert.Len(t, req.DstBitmap, 1<<(dstBits-3))
	assert.Len(t, req.SrcBitmap, 1<<(srcBits-3))
	assert.Len(t, req.MidBitmap, 1)
}

// Property: the hops byte never affects validity, since the hops byte
// is excluded from nothing in validation (only from the fingerprint) —
// validity is a pure function of length and the non-hops fields.
func Test_IsValidMessage_hopsByteIrrelevant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := makeHeader()
		h.Hops = byte(rapid.IntRange(0, 255).Draw(t, "hops"))
		extra := rapid.IntRange(0, 32).Draw(t, "extra")

		buf := make([]byte, FixedHeaderSize+extra)
		PutHeader(buf, h)

		valid := IsValidMessage(buf)
		h.Hops = byte((int(h.Hops) + 1) % 256)
		PutHeader(buf, h)
		assert.Equal(t, valid, IsValidMessage(buf))
	})
}

func Test_IncrementHops_saturatesAt255(t *testing.T) {
	h := Header{Hops: 255}
	IncrementHops(&h)
	assert.Equal(t, byte(255), h.Hops)

	h.Hops = 254
	IncrementHops(&h)
	assert.Equal(t, byte(255), h.Hops)
}

func Test_sigLength_bigEndian(t *testing.T) {
	assert.Equal(t, 0x0102, sigLength(0x01, 0x02))
	assert.Equal(t, 0, sigLength(0, 0))
	assert.Equal(t, 0xFFFF, sigLength(0xFF, 0xFF))
}
