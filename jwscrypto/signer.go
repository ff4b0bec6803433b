// Package jwscrypto is the external-collaborator boundary spec.md §1 and §6
// name: the core never signs or verifies a JWS itself, it only calls the
// Signer/Verifier interfaces defined here. This package also hosts a
// concrete implementation backed by the teacher dependency,
// github.com/MichaelFraser99/go-jose, and the §6 JWK export helpers.
package jwscrypto

import (
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// Algorithm is the closed set of signature algorithms spec.md §4.4 and §6
// name: "EdDSA", "ES256", "ES384".
type Algorithm string

const (
	EdDSA Algorithm = "EdDSA"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
)

// KeyType identifies the key family an Issuer signs with, used to derive
// Algorithm via the mapping in spec.md §4.4: Ed25519→EdDSA, P256→ES256,
// P384→ES384.
type KeyType int

const (
	Ed25519 KeyType = iota
	P256
	P384
)

// AlgorithmFor maps a key type to its JWS algorithm name.
func AlgorithmFor(kt KeyType) (Algorithm, error) {
	switch kt {
	case Ed25519:
		return EdDSA, nil
	case P256:
		return ES256, nil
	case P384:
		return ES384, nil
	default:
		return "", fmt.Errorf("%w: unknown key type %d", sdjerr.UnsupportedSignAlg, kt)
	}
}

// Signer is the external collaborator named in spec.md §1/§6:
// "Sign(payload) → compact JWS". The core depends only on this interface.
type Signer interface {
	Sign(payload []byte) (compactJWS string, err error)
}

// Verifier is the external collaborator named in spec.md §1/§6:
// "Verify(compact JWS, public key) → payload". The public key is bound at
// construction time by the concrete implementation rather than threaded
// through every call.
type Verifier interface {
	Verify(compactJWS string) (payload []byte, err error)
}
