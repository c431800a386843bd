package packet

// Management message types, carried in a single byte immediately
// after the transport-variable region when MessageType == TypeMgmt.
const (
	MgmtBeacon      byte = 0x01
	MgmtBeaconReply byte = 0x02
	MgmtBeaconGrant byte = 0x03
	MgmtPeerRequest byte = 0x04
	MgmtPeers       byte = 0x05
	MgmtDHT         byte = 0x06
	MgmtTraceReq    byte = 0x07
	MgmtTraceReply  byte = 0x08
)

// MgmtHeaderSize is the width of the management sub-header: a single
// mgmt_type byte. The type-specific payload that follows is consumed
// by local collaborators and is not otherwise interpreted by this
// package.
const MgmtHeaderSize = 1

// MgmtType reads the mgmt_type byte from buf, which must already have
// had its fixed header and transport sub-fields skipped (HeaderSize
// bytes) and must have at least MgmtHeaderSize bytes remaining.
func MgmtType(buf []byte) byte {
	return buf[0]
}
