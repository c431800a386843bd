package packet

// IsValidMessage reports whether buf is a well-formed AllNet packet:
// long enough for its fixed header and declared transport sub-fields,
// and, if it declares a signature, long enough for the claimed
// signature to actually fit. It does not validate message-type-
// specific payloads beyond the minimum MGMT sub-header check and the
// data-request size check (fixed part plus its three bitmaps); later
// stages assume this has already returned true before they parse
// further.
func IsValidMessage(buf []byte) bool {
	if len(buf) < FixedHeaderSize {
		return false
	}

	h := ParseHeader(buf)
	hs := HeaderSize(h.Transport)
	if len(buf) < hs {
		return false
	}

	if h.SigAlgo != SigNone {
		if len(buf) < hs+2 {
			return false
		}
		s := SignatureLength(buf)
		if s < 0 || hs+s+2 > len(buf) {
			// The signature claims more bytes than are present; drop
			// at validation rather than forwarding a packet whose
			// trailer cannot be trusted.
			return false
		}
	}

	switch h.MessageType {
	case TypeMgmt:
		if len(buf) < hs+MgmtHeaderSize {
			return false
		}
	case TypeDataReq:
		if len(buf) < hs+DataReqFixedSize {
			return false
		}
		req := buf[hs:]
		dstBits, srcBits, midBits := req[16], req[17], req[18]
		need := DataRequestSize(dstBits, srcBits, midBits)
		if len(buf) < hs+need {
			return false
		}
	}

	return true
}

// SignedRegion returns the slice of buf that was signed: everything
// between the end of the header (fixed header plus transport
// sub-fields) and the start of the trailing signature-length field.
// The caller must have already confirmed IsValidMessage(buf) and that
// h.SigAlgo != SigNone.
func SignedRegion(buf []byte, h Header) []byte {
	hs := HeaderSize(h.Transport)
	s := SignatureLength(buf)
	return buf[hs : len(buf)-2-s]
}

// Signature returns the trailing signature bytes of buf. The caller
// must have already confirmed IsValidMessage(buf) and that
// h.SigAlgo != SigNone.
func Signature(buf []byte) []byte {
	s := SignatureLength(buf)
	return buf[len(buf)-2-s : len(buf)-2]
}
