// Package priority computes the 32-bit forwarding priority assigned
// to each dispatched packet.
package priority

// EPSILON is the minimum sentinel priority: the value a non-local
// submission's claimed priority is reset to before classification,
// and the value kept by non-local management packets and by the
// management types that are always forwarded at the lowest priority.
// Non-MGMT wire packets that are forwarded get a Compute result
// instead.
const EPSILON uint32 = 1

// Local is the maximum possible priority value, above anything
// Compute returns. The dispatcher does not assign it: a local
// submission keeps the priority its submitter claimed.
const Local uint32 = ^uint32(0)

// UnknownSocialTier is the sentinel social distance used when a
// packet's signature has not (yet, or ever) been verified against the
// social table.
const UnknownSocialTier = 255

// maxSocialTier bounds the social-tier contribution; distances beyond
// it are clamped to the social table's [0, max_tier] range.
const maxSocialTier = 63

// Inputs gathers everything Compute needs: every quantity the
// dispatcher has in hand at the point it calls into this package.
type Inputs struct {
	Size         int
	SrcNBits     byte
	DstNBits     byte
	Hops         byte
	MaxHops      byte
	SocialTier   int // 0 = self, larger = farther, UnknownSocialTier = anonymous
	RateFraction float64 // in [0, 1]; smaller share => higher priority
}

// clampByte maps a byte value into the 0-255 eight-bit field directly;
// provided for readability at call sites below.
func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Compute is a pure, deterministic function of the dispatch inputs,
// monotone non-decreasing in size, SrcNBits, DstNBits, (MaxHops-Hops),
// closeness of SocialTier, and (1-RateFraction). The exact weighting
// between these is an implementation choice, fixed here as a bit
// layout for reproducibility:
//
//	bit 31     : always 0 here (local submissions skip Compute entirely
//	             and keep their submitter's priority)
//	bits 24-30 : social-tier contribution (closer = higher)
//	bits 16-23 : rate-fraction contribution (smaller share = higher)
//	bits 8-15  : (max_hops - hops) contribution
//	bits 0-7   : size / address-specificity tie-breaker
func Compute(in Inputs) uint32 {
	tier := in.SocialTier
	if tier < 0 || tier > maxSocialTier {
		tier = maxSocialTier
	}
	socialField := uint32(maxSocialTier-tier) & 0x7F // 0-63, within the 7-bit field

	rateFraction := in.RateFraction
	if rateFraction < 0 {
		rateFraction = 0
	}
	if rateFraction > 1 {
		rateFraction = 1
	}
	rateField := uint32((1 - rateFraction) * 255)

	hopRoom := int(in.MaxHops) - int(in.Hops)
	if hopRoom < 0 {
		hopRoom = 0
	}
	hopField := clampByte(hopRoom)

	addrSpecificity := int(in.SrcNBits) + int(in.DstNBits) // up to 2*64
	sizeContribution := in.Size
	if sizeContribution > 255-64 {
		sizeContribution = 255 - 64
	}
	tieBreak := clampByte(addrSpecificity/2 + sizeContribution)

	return socialField<<24 | rateField<<16 | uint32(hopField)<<8 | uint32(tieBreak)
}
