// Package holder implements the Holder role of spec.md §4.5: given an
// issued SD-JWT, produce a presentation carrying only a subset of its
// Disclosures, without ever adding a disclosure the Issuer did not already
// mint.
package holder

import (
	"encoding/json"
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/disclosure"
	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/jwscrypto"
	"github.com/selective-disclosure/go-sdjwt/pointer"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
	"github.com/selective-disclosure/go-sdjwt"
)

// Select builds a presentation of token containing only the Disclosures
// addressed by paths, in the order paths names them. Every path must
// resolve to a digest commitment present in token's payload (checked via
// verifier, which also authenticates the payload before Select trusts any
// of it) and one of token's own Disclosures must hash to that commitment;
// when no Disclosure matches, Select fails with sdjerr.UnknownDisclosure —
// this is what stops a Holder from inventing a disclosure the Issuer never
// minted.
//
// paths that address a value the Issuer chose NOT to make selectively
// disclosable also fail: with sdjerr.UnknownDisclosure when the parent
// object has an "_sd" array, and otherwise with the error
// pointer.FindCommitment reports (sdjerr.InvalidCommitment, or
// sdjerr.PathNotFound / sdjerr.PathTypeMismatch when the path does not
// resolve).
func Select(token *sdjwt.SDJWT, verifier jwscrypto.Verifier, paths []string) (*sdjwt.SDJWT, error) {
	payload, alg, err := decodePayload(token, verifier)
	if err != nil {
		return nil, err
	}

	selected := make([]*disclosure.Disclosure, 0, len(paths))
	seen := make(map[*disclosure.Disclosure]bool, len(paths))

	for _, raw := range paths {
		p, err := pointer.Parse(raw)
		if err != nil {
			return nil, err
		}

		d, err := resolve(payload, p, alg, token.Disclosures)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			selected = append(selected, d)
		}
	}

	return &sdjwt.SDJWT{
		JWS:           token.JWS,
		Disclosures:   selected,
		KeyBindingJWT: token.KeyBindingJWT,
	}, nil
}

// resolve finds the single Disclosure in candidates that backs the
// commitment at path, per spec.md §4.3/§4.5.
func resolve(payload any, p pointer.Path, alg hash.Algorithm, candidates []*disclosure.Disclosure) (*disclosure.Disclosure, error) {
	objectHashes, arrayHash, err := pointer.FindCommitment(payload, p)
	if err != nil {
		return nil, err
	}

	if p.IsKey() {
		name := lastSegment(p)
		for _, d := range candidates {
			if !d.IsObject() || *d.Name() != name {
				continue
			}
			h, err := d.Hash(alg)
			if err != nil {
				return nil, err
			}
			if contains(objectHashes, h) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("%w: no disclosure named %q matches the commitment at %s", sdjerr.UnknownDisclosure, name, p)
	}

	for _, d := range candidates {
		if d.IsObject() {
			continue
		}
		h, err := d.Hash(alg)
		if err != nil {
			return nil, err
		}
		if h == arrayHash {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: no disclosure matches the commitment at %s", sdjerr.UnknownDisclosure, p)
}

func contains(hashes []string, target string) bool {
	for _, h := range hashes {
		if h == target {
			return true
		}
	}
	return false
}

// lastSegment re-derives path's final token. Path doesn't export its
// tokens, so the last segment of the pointer's own text is taken and
// unescaped ("~1" -> "/", "~0" -> "~") so that it compares equal to the
// Disclosure name Select matches it against.
func lastSegment(p pointer.Path) string {
	raw := p.String()
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == '/' {
			return unescape(raw[i+1:])
		}
	}
	return unescape(raw)
}

func unescape(tok string) string {
	out := make([]byte, 0, len(tok))
	for i := 0; i < len(tok); i++ {
		if tok[i] == '~' && i+1 < len(tok) {
			switch tok[i+1] {
			case '1':
				out = append(out, '/')
				i++
				continue
			case '0':
				out = append(out, '~')
				i++
				continue
			}
		}
		out = append(out, tok[i])
	}
	return string(out)
}

// decodePayload authenticates token's JWS via verifier and parses its
// payload, returning the hash algorithm named by the payload's "_sd_alg"
// claim (hash.SHA256 if the claim is absent; an Issuer omits it only when
// it hid nothing, so there is no disclosure to hash).
func decodePayload(token *sdjwt.SDJWT, verifier jwscrypto.Verifier) (map[string]any, hash.Algorithm, error) {
	raw, err := verifier.Verify(token.JWS)
	if err != nil {
		return nil, 0, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, 0, fmt.Errorf("%w: payload is not a json object: %s", sdjerr.MalformedSDJWT, err.Error())
	}

	alg := hash.SHA256
	if rawAlg, ok := payload[disclosure.SDAlgKey]; ok {
		name, ok := rawAlg.(string)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s must be a string", sdjerr.MalformedSDJWT, disclosure.SDAlgKey)
		}
		alg, err = hash.Parse(name)
		if err != nil {
			return nil, 0, err
		}
	}

	return payload, alg, nil
}
