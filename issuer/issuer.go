// Package issuer implements the Issuer role of spec.md §4.4: given a claim
// set and a list of paths to selectively disclose, it produces a signed
// SD-JWT plus the Disclosures that accompany it.
package issuer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/selective-disclosure/go-sdjwt/disclosure"
	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/jwscrypto"
	"github.com/selective-disclosure/go-sdjwt/pointer"
	"github.com/selective-disclosure/go-sdjwt/salt"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
	"github.com/selective-disclosure/go-sdjwt"
)

// Issuer turns a claim set into a signed SD-JWT. It is safe to reuse across
// issuances but not safe for concurrent use (it owns a single salt
// Generator; see spec.md §5 — give each goroutine its own Issuer).
type Issuer struct {
	signer  jwscrypto.Signer
	hashAlg hash.Algorithm
	saltGen *salt.Generator
	std     StdClaims
}

// New builds an Issuer signing with signer, applying opts on top of the
// defaults: hash.SHA256, salt.Default(), and DefaultStdClaims(time.Now()).
func New(signer jwscrypto.Signer, opts ...Option) *Issuer {
	i := &Issuer{
		signer:  signer,
		hashAlg: hash.SHA256,
		saltGen: salt.Default(),
		std:     DefaultStdClaims(time.Now()),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue builds a claim tree from claims plus this Issuer's standard claims,
// selectively hides every value addressed by paths (per spec.md §4.3,
// deepest-first so any path order yields the same result), and signs the
// result. paths may be empty, producing a token with no disclosures at all.
//
// claims must not contain any of the reserved names disclosure.IsReservedName
// rejects ("_sd", "_sd_alg", "...") at any depth the caller plans to
// selectively disclose from; this is only checked where FindAndHide walks.
func (i *Issuer) Issue(claims map[string]any, paths []string) (*sdjwt.SDJWT, error) {
	payload := deepCopyObject(claims)
	i.std.merge(payload)

	parsed := make([]pointer.Path, 0, len(paths))
	for _, raw := range paths {
		p, err := pointer.Parse(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}
	pointer.SortDeepestFirst(parsed)

	disclosures := make([]*disclosure.Disclosure, 0, len(parsed))
	for _, p := range parsed {
		d, err := pointer.FindAndHide(payload, p, i.hashAlg, i.saltGen)
		if err != nil {
			return nil, fmt.Errorf("hiding %s: %w", p, err)
		}
		disclosures = append(disclosures, d)
	}

	if len(disclosures) > 0 {
		payload[disclosure.SDAlgKey] = i.hashAlg.Name()
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling payload: %s", sdjerr.MalformedSDJWT, err.Error())
	}

	jws, err := i.signer.Sign(payloadJSON)
	if err != nil {
		return nil, err
	}

	return &sdjwt.SDJWT{JWS: jws, Disclosures: disclosures}, nil
}

// deepCopyObject round-trips v through JSON so FindAndHide's in-place
// mutations never reach the caller's claims map.
func deepCopyObject(v map[string]any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	if out == nil {
		out = map[string]any{}
	}
	return out
}
