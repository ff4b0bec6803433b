package issuer

import (
	"time"

	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/salt"
)

// stdClaimsLeeway is subtracted from "now" when defaulting iat/nbf, so a
// verifier with a slightly-behind clock does not reject a freshly issued
// token. Grounded in original_source/src/issuer/std.rs's DEFAULT_LEEWAY.
const stdClaimsLeeway = 1 * time.Hour

// stdClaimsDefaultTTL is how long a freshly issued token is valid for when
// no explicit expiry is supplied.
const stdClaimsDefaultTTL = 24 * time.Hour

// StdClaims holds the JWT registered claims spec.md §4.4 lists as always
// visible by default: iss, iat, nbf, exp, sub, aud, jti. A nil field is
// omitted from the payload entirely rather than disclosed as null.
type StdClaims struct {
	Issuer    *string
	IssuedAt  *int64
	NotBefore *int64
	Expiry    *int64
	Subject   *string
	Audience  []string
	JTI       *string
}

// DefaultStdClaims returns the sane default spec.md §4.4 recommends: iat and
// nbf set to now minus a one-hour leeway (clock-skew tolerance), exp set
// twenty-four hours after that. Issuer, Subject, Audience, and JTI are left
// unset; callers supply them with the With* options below.
func DefaultStdClaims(now time.Time) StdClaims {
	base := now.Add(-stdClaimsLeeway).Unix()
	exp := now.Add(-stdClaimsLeeway).Add(stdClaimsDefaultTTL).Unix()
	return StdClaims{
		IssuedAt:  &base,
		NotBefore: &base,
		Expiry:    &exp,
	}
}

func ptr[T any](v T) *T { return &v }

// merge writes the non-nil standard claims into payload under their JWT
// registered names, skipping any claim input already set explicitly — the
// caller's input always wins over a default.
func (c StdClaims) merge(payload map[string]any) {
	setIfAbsent(payload, "iss", c.Issuer)
	setIfAbsent(payload, "sub", c.Subject)
	setIfAbsent(payload, "jti", c.JTI)
	if c.IssuedAt != nil {
		setIfAbsent(payload, "iat", c.IssuedAt)
	}
	if c.NotBefore != nil {
		setIfAbsent(payload, "nbf", c.NotBefore)
	}
	if c.Expiry != nil {
		setIfAbsent(payload, "exp", c.Expiry)
	}
	if len(c.Audience) > 0 {
		if _, exists := payload["aud"]; !exists {
			payload["aud"] = c.Audience
		}
	}
}

func setIfAbsent[T any](payload map[string]any, key string, value *T) {
	if value == nil {
		return
	}
	if _, exists := payload[key]; exists {
		return
	}
	payload[key] = *value
}

// Option configures an Issuer at construction time.
type Option func(*Issuer)

// WithHashAlg overrides the digest algorithm disclosures are hashed with.
// Default is hash.SHA256.
func WithHashAlg(alg hash.Algorithm) Option {
	return func(i *Issuer) { i.hashAlg = alg }
}

// WithSaltGenerator overrides the salt Generator used for every disclosure
// this Issuer produces. Default is salt.Default().
func WithSaltGenerator(gen *salt.Generator) Option {
	return func(i *Issuer) { i.saltGen = gen }
}

// WithStdClaims overrides the standard claim defaults applied to every
// token this Issuer signs.
func WithStdClaims(claims StdClaims) Option {
	return func(i *Issuer) { i.std = claims }
}

// WithIssuer sets the "iss" standard claim.
func WithIssuer(iss string) Option {
	return func(i *Issuer) { i.std.Issuer = ptr(iss) }
}

// WithSubject sets the "sub" standard claim.
func WithSubject(sub string) Option {
	return func(i *Issuer) { i.std.Subject = ptr(sub) }
}

// WithAudience sets the "aud" standard claim.
func WithAudience(aud ...string) Option {
	return func(i *Issuer) { i.std.Audience = aud }
}

// WithJTI sets the "jti" standard claim.
func WithJTI(jti string) Option {
	return func(i *Issuer) { i.std.JTI = ptr(jti) }
}
