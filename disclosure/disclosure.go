// Package disclosure implements the fundamental unit of SD-JWT: a salted
// commitment to one claim (spec.md §3, §4.2).
package disclosure

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// Reserved names MUST NOT appear as user claim names, per spec.md §6.
const (
	SDKey          = "_sd"
	SDAlgKey       = "_sd_alg"
	ArrayDigestKey = "..."
)

// IsReservedName reports whether name collides with a name the wire format
// reserves for digest commitments.
func IsReservedName(name string) bool {
	return name == SDKey || name == SDAlgKey || name == ArrayDigestKey
}

// Disclosure is the tagged Object/Array variant from spec.md §3. Name is
// nil for an array-element disclosure and non-nil for an object-member
// disclosure; exactly one of those two shapes is ever constructed.
type Disclosure struct {
	salt  string
	name  *string
	value any
}

// NewObject builds an object-form disclosure: ["<salt>", "<name>", <value>].
func NewObject(saltValue, name string, value any) (*Disclosure, error) {
	if IsReservedName(name) {
		return nil, fmt.Errorf("%w: %q", sdjerr.ReservedClaimName, name)
	}
	n := name
	return &Disclosure{salt: saltValue, name: &n, value: value}, nil
}

// NewArray builds an array-form disclosure: ["<salt>", <value>].
func NewArray(saltValue string, value any) (*Disclosure, error) {
	return &Disclosure{salt: saltValue, value: value}, nil
}

// Salt returns the disclosure's salt, base64url-no-pad encoded.
func (d *Disclosure) Salt() string { return d.salt }

// Name returns the claim name for an object-form disclosure, or nil for an
// array-form one.
func (d *Disclosure) Name() *string { return d.name }

// Value returns the disclosed claim value, as decoded JSON.
func (d *Disclosure) Value() any { return d.value }

// IsObject reports whether this is an object-member disclosure.
func (d *Disclosure) IsObject() bool { return d.name != nil }

// Encode returns the disclosure's one canonical string encoding: the
// base64url-no-pad encoding of the UTF-8 bytes of the disclosure's JSON
// array, serialized with the reference (Python-compatible) separator
// style. This is both the transport form and the input to Hash.
func (d *Disclosure) Encode() (string, error) {
	var arr []any
	if d.IsObject() {
		arr = []any{d.salt, *d.name, d.value}
	} else {
		arr = []any{d.salt, d.value}
	}

	raw, err := canonical(arr)
	if err != nil {
		return "", fmt.Errorf("encoding disclosure: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Hash computes the disclosure's digest under alg: base64url(alg(Encode())).
func (d *Disclosure) Hash(alg hash.Algorithm) (string, error) {
	encoded, err := d.Encode()
	if err != nil {
		return "", err
	}
	h := alg.New()
	h.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

// Equal reports whether two disclosures are equal ignoring any hash
// parameter: salts, names, and values must all match (spec.md §4.2).
func (d *Disclosure) Equal(other *Disclosure) bool {
	if other == nil {
		return false
	}
	if d.salt != other.salt {
		return false
	}
	if d.IsObject() != other.IsObject() {
		return false
	}
	if d.IsObject() && *d.name != *other.name {
		return false
	}
	dv, err1 := json.Marshal(d.value)
	ov, err2 := json.Marshal(other.value)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(dv) == string(ov)
}

// Parse decodes an on-wire disclosure string: base64url decode, JSON parse,
// then discriminate by array arity — 3 elements is an object-form
// disclosure, 2 is array-form, anything else is InvalidDisclosure.
func Parse(encoded string) (*Disclosure, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64url decode: %s", sdjerr.InvalidDisclosure, err.Error())
	}

	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("%w: not a json array: %s", sdjerr.InvalidDisclosure, err.Error())
	}

	switch len(arr) {
	case 2:
		s, ok := arr[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: salt must be a string", sdjerr.InvalidDisclosure)
		}
		return &Disclosure{salt: s, value: arr[1]}, nil
	case 3:
		s, ok := arr[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: salt must be a string", sdjerr.InvalidDisclosure)
		}
		name, ok := arr[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: name must be a string", sdjerr.InvalidDisclosure)
		}
		if IsReservedName(name) {
			return nil, fmt.Errorf("%w: %q", sdjerr.ReservedClaimName, name)
		}
		return &Disclosure{salt: s, name: &name, value: arr[2]}, nil
	default:
		return nil, fmt.Errorf("%w: expected 2 or 3 array elements, got %d", sdjerr.InvalidDisclosure, len(arr))
	}
}
