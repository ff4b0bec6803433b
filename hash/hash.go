// Package hash names the digest algorithms a disclosure may be hashed
// with, per spec.md §4.1. Names follow the IANA Named Information registry
// (https://www.iana.org/assignments/named-information/named-information.xhtml)
// since that is the vocabulary the SD-JWT draft uses for _sd_alg.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// Algorithm is a closed set of supported digest functions.
type Algorithm int

const (
	// SHA256 is the default, per spec.md §4.1.
	SHA256 Algorithm = iota
	SHA384
	SHA512
)

// Name returns the IANA named-information name recorded in a payload's
// _sd_alg claim.
func (a Algorithm) Name() string {
	switch a {
	case SHA256:
		return "sha-256"
	case SHA384:
		return "sha-384"
	case SHA512:
		return "sha-512"
	default:
		return ""
	}
}

// New returns a fresh hash.Hash instance for this algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	default:
		return sha256.New()
	}
}

// Parse resolves an IANA named-information name to an Algorithm. Names not
// implemented here (e.g. "sha3-256", "blake2b-256", named as permissible in
// spec.md §4.1) are rejected with UnsupportedHashAlg rather than silently
// defaulting, so an Issuer or Verifier never mismatches on the wire name.
func Parse(name string) (Algorithm, error) {
	switch name {
	case "sha-256":
		return SHA256, nil
	case "sha-384":
		return SHA384, nil
	case "sha-512":
		return SHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", sdjerr.UnsupportedHashAlg, name)
	}
}
