// Package packet decodes and validates the AllNet wire format: the
// fixed packet header, the optional transport sub-fields, the
// management sub-header, and the data-request payload.
package packet

// Message types carried in the fixed header's message_type field.
const (
	TypeData    byte = 0x01
	TypeAck     byte = 0x02
	TypeMgmt    byte = 0x03
	TypeDataReq byte = 0x04
	TypeKeyXchg byte = 0x05
)

// Signature algorithm tags.
const (
	SigNone byte = 0x00
	SigRSA  byte = 0x01
	SigEd25519 byte = 0x02
)

// Transport is a bitmask of optional per-packet header extensions.
// Each bit, if set, appends a fixed-size sub-field immediately after
// the fixed header, in bit order from lowest to highest. The wire
// protocol that produces these bits belongs to the individual
// transports; this package only needs to know how many bytes each bit
// contributes so it can locate the payload.
type Transport byte

const (
	TransportStream       Transport = 1 << 0 // 2-byte stream id follows
	TransportAckID        Transport = 1 << 1 // 8-byte message id for ack correlation
	TransportExpiration   Transport = 1 << 2 // 8-byte expiration timestamp
	TransportDoNotCache   Transport = 1 << 3 // flag only, no extra bytes
)

var transportFieldSize = map[Transport]int{
	TransportStream:     2,
	TransportAckID:       8,
	TransportExpiration:  8,
}

// FixedHeaderSize is the width of the fixed header: version,
// message_type, hops, max_hops, src_nbits, dst_nbits, sig_algo,
// transport (1 byte each), source, destination (8 bytes each).
const FixedHeaderSize = 8 + 8 + 8

// HeaderSize returns the number of header bytes preceding the
// payload: the fixed header plus whatever transport sub-fields are
// selected by t. This is the boundary past which management
// sub-headers, data-request payloads, and ordinary DATA payloads all
// start, and so does the signed region used for signature
// verification.
func HeaderSize(t Transport) int {
	size := FixedHeaderSize
	for bit, n := range transportFieldSize {
		if t&bit != 0 {
			size += n
		}
	}
	return size
}

// Header is the parsed fixed header of an AllNet packet.
type Header struct {
	Version     byte
	MessageType byte
	Hops        byte
	MaxHops     byte
	SrcNBits    byte
	DstNBits    byte
	SigAlgo     byte
	Transport   Transport
	Source      [8]byte
	Destination [8]byte
}

// ParseHeader decodes the fixed header from buf. The caller must have
// already established len(buf) >= FixedHeaderSize (IsValidMessage does
// this); ParseHeader itself does not bounds-check.
func ParseHeader(buf []byte) Header {
	var h Header
	h.Version = buf[0]
	h.MessageType = buf[1]
	h.Hops = buf[2]
	h.MaxHops = buf[3]
	h.SrcNBits = buf[4]
	h.DstNBits = buf[5]
	h.SigAlgo = buf[6]
	h.Transport = Transport(buf[7])
	copy(h.Source[:], buf[8:16])
	copy(h.Destination[:], buf[16:24])
	return h
}

// PutHeader encodes h into the first FixedHeaderSize bytes of buf.
func PutHeader(buf []byte, h Header) {
	buf[0] = h.Version
	buf[1] = h.MessageType
	buf[2] = h.Hops
	buf[3] = h.MaxHops
	buf[4] = h.SrcNBits
	buf[5] = h.DstNBits
	buf[6] = h.SigAlgo
	buf[7] = byte(h.Transport)
	copy(buf[8:16], h.Source[:])
	copy(buf[16:24], h.Destination[:])
}

// sigLength decodes the big-endian 16-bit signature length from the
// last two bytes of a packet that declares sig_algo != NONE, as
// (hi << 8) | lo. In Go, << binds tighter than |, so the expression
// below needs no extra parentheses. The C original wrote the decode as
// a shift plus an addition, and since C binds + tighter than << that
// expression did not compute a big-endian value; do not rewrite this
// in that arithmetic form.
func sigLength(hi, lo byte) int {
	return int(uint16(hi)<<8 | uint16(lo))
}

// SignatureLength returns the claimed signature length of buf, which
// must declare sig_algo != NONE and be at least 2 bytes long.
func SignatureLength(buf []byte) int {
	n := len(buf)
	return sigLength(buf[n-2], buf[n-1])
}

// IncrementHops increments h.Hops by one, saturating at 255 rather
// than wrapping to 0. A packet that has gone around 255 times is
// still forwarded locally on arrival but never reintroduced to the
// network with a counter that would otherwise wrap back to a small
// value.
func IncrementHops(h *Header) {
	if h.Hops < 255 {
		h.Hops++
	}
}
