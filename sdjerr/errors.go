// Package sdjerr defines the sentinel errors shared across the sd-jwt core.
//
// Each value names one kind from the error taxonomy: input errors, format
// errors, cryptographic errors, integrity errors, and programming errors.
// Callers should compare with errors.Is against these sentinels rather than
// matching error strings. Packages wrap them with detail using
// fmt.Errorf("%w: detail", sdjerr.X).
package sdjerr

import "errors"

var (
	// Input errors.
	PathNotFound         = errors.New("json pointer path not found")
	PathTypeMismatch     = errors.New("json pointer path type mismatch")
	ReservedClaimName    = errors.New("reserved claim name")
	SelectionUnsupported = errors.New("disclosure selection not representable")

	// Format errors.
	MalformedSDJWT    = errors.New("malformed sd-jwt")
	InvalidDisclosure = errors.New("invalid disclosure")
	InvalidCommitment = errors.New("invalid commitment")

	// Cryptographic errors.
	RngUnavailable      = errors.New("rng unavailable")
	InvalidKeyMaterial  = errors.New("invalid key material")
	InvalidSignature    = errors.New("invalid issuer signature")
	UnsupportedHashAlg  = errors.New("unsupported hash algorithm")
	UnsupportedSignAlg  = errors.New("unsupported signature algorithm")

	// Integrity errors.
	OrphanDisclosure  = errors.New("orphan disclosure")
	UnknownDisclosure = errors.New("unknown disclosure")

	// Programming errors.
	SaltTooSmall = errors.New("salt below minimum size")
)
