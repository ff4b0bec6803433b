package jwscrypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// JWK is the minimal public-key JSON Web Key shape spec.md §6 requires for
// publishing an Issuer's verification key: EC (P-256/P-384), OKP
// (Ed25519), and RSA.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// ECJWK builds the {"kty":"EC", "crv":..., "x":..., "y":...} form from an
// uncompressed P-256 or P-384 public key, per spec.md §6.
func ECJWK(pub *ecdsa.PublicKey) (*JWK, error) {
	var crv string
	var size int
	switch pub.Curve.Params().Name {
	case "P-256":
		crv, size = "P-256", 32
	case "P-384":
		crv, size = "P-384", 48
	default:
		return nil, fmt.Errorf("%w: unsupported EC curve %s", sdjerr.InvalidKeyMaterial, pub.Curve.Params().Name)
	}

	x := pub.X.FillBytes(make([]byte, size))
	y := pub.Y.FillBytes(make([]byte, size))

	return &JWK{Kty: "EC", Crv: crv, X: b64(x), Y: b64(y)}, nil
}

// Ed25519JWK builds the {"kty":"OKP","crv":"Ed25519","x":...} form.
func Ed25519JWK(pub ed25519.PublicKey) (*JWK, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: invalid ed25519 public key length %d", sdjerr.InvalidKeyMaterial, len(pub))
	}
	return &JWK{Kty: "OKP", Crv: "Ed25519", X: b64(pub)}, nil
}

// RSAJWK builds the {"kty":"RSA","n":...,"e":...} form.
func RSAJWK(pub *rsa.PublicKey) (*JWK, error) {
	if pub == nil || pub.N == nil {
		return nil, fmt.Errorf("%w: nil rsa public key", sdjerr.InvalidKeyMaterial)
	}
	eBytes := bigEndianUint(pub.E)
	return &JWK{Kty: "RSA", N: b64(pub.N.Bytes()), E: b64(eBytes)}, nil
}

func bigEndianUint(v int) []byte {
	if v == 0 {
		return []byte{0}
	}
	var b []byte
	for v > 0 {
		b = append([]byte{byte(v & 0xff)}, b...)
		v >>= 8
	}
	return b
}
