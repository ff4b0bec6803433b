package jwscrypto

import (
	"crypto"
	"fmt"

	gojose "github.com/MichaelFraser99/go-jose/jws"
	josemodel "github.com/MichaelFraser99/go-jose/model"

	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// typHeader is fixed for every SD-JWT signed by this package, per spec.md §6.
const typHeader = "example+sd-jwt"

// JoseSigner adapts github.com/MichaelFraser99/go-jose — the teacher
// repo's own signing dependency — to the Signer interface. An Issuer has
// no default Signer; callers pass this one (or their own) to issuer.New.
type JoseSigner struct {
	alg Algorithm
	key crypto.PrivateKey
}

// NewJoseSigner builds a Signer for alg backed by key.
func NewJoseSigner(alg Algorithm, key crypto.PrivateKey) *JoseSigner {
	return &JoseSigner{alg: alg, key: key}
}

// Sign produces a compact JWS over payload with header {"alg": alg, "typ":
// "example+sd-jwt"}.
func (s *JoseSigner) Sign(payload []byte) (string, error) {
	signer, err := gojose.NewSigner(josemodel.Algorithm(s.alg), &josemodel.SigningOptions{
		PrivateKey: s.key,
		Headers: map[string]interface{}{
			"typ": typHeader,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: constructing signer: %s", sdjerr.InvalidKeyMaterial, err.Error())
	}

	compact, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("signing sd-jwt payload: %w", err)
	}
	return string(compact), nil
}

// JoseVerifier adapts github.com/MichaelFraser99/go-jose to the Verifier
// interface, binding a single public key at construction time.
type JoseVerifier struct {
	alg Algorithm
	key crypto.PublicKey
}

// NewJoseVerifier builds a Verifier for alg backed by key.
func NewJoseVerifier(alg Algorithm, key crypto.PublicKey) *JoseVerifier {
	return &JoseVerifier{alg: alg, key: key}
}

// Verify checks compactJWS's signature and returns its payload bytes.
// Any verification failure — malformed token, algorithm mismatch, bad
// signature — is reported as sdjerr.InvalidSignature, matching spec.md §7's
// requirement that signature failures carry a distinct kind from integrity
// failures. A verifier that cannot be built for the bound key is reported
// as sdjerr.InvalidKeyMaterial instead.
func (v *JoseVerifier) Verify(compactJWS string) ([]byte, error) {
	verifier, err := gojose.NewVerifier(josemodel.Algorithm(v.alg), &josemodel.VerifierOptions{
		PublicKey: v.key,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: constructing verifier: %s", sdjerr.InvalidKeyMaterial, err.Error())
	}

	payload, err := verifier.Verify([]byte(compactJWS))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sdjerr.InvalidSignature, err.Error())
	}
	return payload, nil
}
