package social

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"

	"github.com/allnet-io/ad/internal/packet"
)

// verify reports whether sig is a valid signature of signedRegion
// under pubKeyDER, according to algo. Unsupported or malformed keys
// never verify. A failed signature does not suppress the packet; it
// only denies it the social-distance boost.
func verify(algo byte, pubKeyDER, signedRegion, sig []byte) bool {
	switch algo {
	case packet.SigEd25519:
		if len(pubKeyDER) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pubKeyDER), signedRegion, sig)

	case packet.SigRSA:
		pub, err := x509.ParsePKCS1PublicKey(pubKeyDER)
		if err != nil {
			return false
		}
		digest := sha256.Sum256(signedRegion)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil

	default:
		return false
	}
}

func algoByte(algo string) byte {
	switch algo {
	case "ed25519":
		return packet.SigEd25519
	case "rsa":
		return packet.SigRSA
	default:
		return packet.SigNone
	}
}
