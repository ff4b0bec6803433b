// Package sdjwt holds the SD-JWT data model (spec.md §3) and its wire
// serialization (spec.md §6): the compact JWS, the list of Disclosures
// that accompany it, and the reserved key-binding JWT slot.
package sdjwt

import (
	"fmt"
	"strings"

	"github.com/selective-disclosure/go-sdjwt/disclosure"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// Separator is the literal '~' the wire format uses between fields.
const Separator = "~"

// SDJWT is the full artifact produced by an Issuer, mutated by a Holder,
// and consumed by a Verifier: a compact JWS, the Disclosures available to
// accompany it, and an optional key-binding JWT.
//
// Key-binding JWT *minting* is out of scope (spec.md §1, §9); the slot is
// carried through so a future caller can populate it without a wire-format
// change.
type SDJWT struct {
	JWS           string
	Disclosures   []*disclosure.Disclosure
	KeyBindingJWT string
}

// Serialize renders the combined format: <jws>~<d1>~<d2>~...~<dn>~<kb>.
// KeyBindingJWT may be empty, in which case the trailing field is empty
// too (the trailing '~' is still emitted). With no Disclosures an empty
// disclosure field is written ("<jws>~~<kb>"), so the result always has
// the three fields Parse requires.
func (s *SDJWT) Serialize() (string, error) {
	var b strings.Builder
	b.WriteString(s.JWS)

	if len(s.Disclosures) == 0 {
		b.WriteString(Separator)
	}

	for _, d := range s.Disclosures {
		encoded, err := d.Encode()
		if err != nil {
			return "", fmt.Errorf("serializing disclosure: %w", err)
		}
		b.WriteString(Separator)
		b.WriteString(encoded)
	}

	b.WriteString(Separator)
	b.WriteString(s.KeyBindingJWT)

	return b.String(), nil
}

// Parse splits a serialized SD-JWT into its JWS, Disclosures, and
// key-binding slot, per spec.md §6: at least three '~'-separated fields
// are required (JWS, >=1 disclosure field, key-binding slot — the
// disclosure field may itself be empty when nothing was redacted, e.g.
// "<jws>~~"). Each non-empty middle field is parsed as a Disclosure;
// Parse does not verify the JWS signature — that is the Holder's and
// Verifier's job, via jwscrypto.Verifier.
func Parse(serialized string) (*SDJWT, error) {
	parts := strings.Split(serialized, Separator)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 '~'-separated fields, got %d", sdjerr.MalformedSDJWT, len(parts))
	}

	jws := parts[0]
	keyBinding := parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]

	var disclosures []*disclosure.Disclosure
	for _, seg := range middle {
		if seg == "" {
			continue
		}
		d, err := disclosure.Parse(seg)
		if err != nil {
			return nil, err
		}
		disclosures = append(disclosures, d)
	}

	return &SDJWT{JWS: jws, Disclosures: disclosures, KeyBindingJWT: keyBinding}, nil
}
