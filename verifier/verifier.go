// Package verifier implements the Verifier role of spec.md §4.6: parse a
// combined SD-JWT, authenticate its JWS, and reconstruct the cleartext
// claim tree from whichever Disclosures the presentation carries.
package verifier

import (
	"encoding/json"
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/disclosure"
	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/jwscrypto"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
	"github.com/selective-disclosure/go-sdjwt"
)

// config collects the options Parse is built with.
type config struct {
	verifier jwscrypto.Verifier
}

// Option configures Parse.
type Option func(*config)

// WithSignatureVerifier supplies the collaborator that authenticates the
// JWS before Parse trusts any claim in its payload. Required — Parse
// refuses to reconstruct a payload it has not authenticated.
func WithSignatureVerifier(v jwscrypto.Verifier) Option {
	return func(c *config) { c.verifier = v }
}

// Parse authenticates serialized's JWS, then reconstructs its cleartext
// claim tree: every "_sd" digest and "..." array commitment with a
// matching Disclosure is replaced by that Disclosure's value, and "_sd" and
// "_sd_alg" are dropped. A withheld commitment (no matching Disclosure) is
// not an error: a withheld object member is simply absent from the result,
// while a withheld array element stays in its array as its {"...": digest}
// commitment object; such placeholders are not removed.
//
// Every Disclosure the presentation carries MUST match some commitment in
// the payload; one that doesn't is sdjerr.OrphanDisclosure (spec.md §7) —
// a Holder (or attacker) cannot smuggle in a disclosure the Issuer never
// committed to.
func Parse(serialized string, opts ...Option) (map[string]any, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.verifier == nil {
		return nil, fmt.Errorf("%w: no signature verifier configured", sdjerr.InvalidSignature)
	}

	token, err := sdjwt.Parse(serialized)
	if err != nil {
		return nil, err
	}

	rawPayload, err := cfg.verifier.Verify(token.JWS)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload is not a json object: %s", sdjerr.MalformedSDJWT, err.Error())
	}

	alg := hash.SHA256
	if rawAlg, ok := payload[disclosure.SDAlgKey]; ok {
		name, ok := rawAlg.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", sdjerr.MalformedSDJWT, disclosure.SDAlgKey)
		}
		alg, err = hash.Parse(name)
		if err != nil {
			return nil, err
		}
	}

	byHash := make(map[string]*disclosure.Disclosure, len(token.Disclosures))
	for _, d := range token.Disclosures {
		h, err := d.Hash(alg)
		if err != nil {
			return nil, err
		}
		byHash[h] = d
	}

	matched := make(map[string]bool, len(byHash))
	if err := inflate(payload, byHash, matched); err != nil {
		return nil, err
	}

	for h, d := range byHash {
		if !matched[h] {
			return nil, fmt.Errorf("%w: %s", sdjerr.OrphanDisclosure, describeDisclosure(d, h))
		}
	}

	delete(payload, disclosure.SDAlgKey)
	return payload, nil
}

func describeDisclosure(d *disclosure.Disclosure, h string) string {
	if d.IsObject() {
		return fmt.Sprintf("%q (hash %s)", *d.Name(), h)
	}
	return fmt.Sprintf("array element (hash %s)", h)
}

// inflate walks node in place, resolving every "_sd" digest and "..."
// commitment it can match against byHash, recording each match in matched.
// A commitment with no matching disclosure is left untouched — the Holder
// withheld it, which is the normal case, not a failure.
func inflate(node any, byHash map[string]*disclosure.Disclosure, matched map[string]bool) error {
	switch v := node.(type) {
	case map[string]any:
		if err := inflateObject(v, byHash, matched); err != nil {
			return err
		}
		for k, val := range v {
			if k == disclosure.SDAlgKey {
				continue
			}
			if err := inflate(val, byHash, matched); err != nil {
				return err
			}
		}
		return nil

	case []any:
		for i, elem := range v {
			replaced, err := inflateArrayElement(elem, byHash, matched)
			if err != nil {
				return err
			}
			if replaced != nil {
				v[i] = replaced
				continue
			}
			if err := inflate(elem, byHash, matched); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

func inflateObject(obj map[string]any, byHash map[string]*disclosure.Disclosure, matched map[string]bool) error {
	raw, ok := obj[disclosure.SDKey]
	if !ok {
		return nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return fmt.Errorf("%w: %s is not an array", sdjerr.MalformedSDJWT, disclosure.SDKey)
	}

	for _, entry := range arr {
		h, ok := entry.(string)
		if !ok {
			return fmt.Errorf("%w: %s entry is not a string", sdjerr.MalformedSDJWT, disclosure.SDKey)
		}
		d, ok := byHash[h]
		if !ok {
			continue
		}
		if !d.IsObject() {
			return fmt.Errorf("%w: array-form disclosure used as object commitment", sdjerr.InvalidDisclosure)
		}
		matched[h] = true

		value := d.Value()
		if err := inflate(value, byHash, matched); err != nil {
			return err
		}
		obj[*d.Name()] = value
	}

	delete(obj, disclosure.SDKey)
	return nil
}

// inflateArrayElement reports the replacement value for elem if it is a
// "..." commitment with a matching disclosure, or (nil, nil) if elem should
// be left alone (not a commitment, or an unmatched one).
func inflateArrayElement(elem any, byHash map[string]*disclosure.Disclosure, matched map[string]bool) (any, error) {
	obj, ok := elem.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, nil
	}
	raw, ok := obj[disclosure.ArrayDigestKey]
	if !ok {
		return nil, nil
	}
	h, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s entry is not a string", sdjerr.MalformedSDJWT, disclosure.ArrayDigestKey)
	}
	d, ok := byHash[h]
	if !ok {
		return nil, nil
	}
	if d.IsObject() {
		return nil, fmt.Errorf("%w: object-form disclosure used as array commitment", sdjerr.InvalidDisclosure)
	}
	matched[h] = true

	value := d.Value()
	if err := inflate(value, byHash, matched); err != nil {
		return nil, err
	}
	return value, nil
}
