// Package pointer implements the RFC 6901 JSON Pointer engine plus the two
// mutating operations spec.md §4.3 adds on top of it: find_and_hide and
// find_commitment.
package pointer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/selective-disclosure/go-sdjwt/disclosure"
	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/salt"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// Path is a parsed JSON Pointer, RFC 6901, with the escape sequences
// '~1' -> '/' and '~0' -> '~' already resolved (order matters: '~1' first,
// then '~0', to avoid an ambiguous decode).
type Path struct {
	raw    string
	tokens []string
}

// Parse validates and tokenizes raw. Validation here is intentionally
// limited to "starts with '/'" and "non-empty" — the same two checks
// original_source/src/core/json_pointer/path.rs performs, flagged there as
// not a full RFC 6901 validator (escape-sequence malformedness is
// unspecified). See DESIGN.md for why this is kept as-is rather than
// tightened.
func Parse(raw string) (Path, error) {
	if raw == "" || raw[0] != '/' {
		return Path{}, fmt.Errorf("%w: %q", sdjerr.PathNotFound, raw)
	}

	segments := strings.Split(raw[1:], "/")
	tokens := make([]string, len(segments))
	for i, seg := range segments {
		tokens[i] = unescapeToken(seg)
	}
	return Path{raw: raw, tokens: tokens}, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

// String returns the original pointer text.
func (p Path) String() string { return p.raw }

// FromTokens builds a Path directly from already-decoded tokens, skipping
// the escape/unescape step Parse performs. Used by callers that walk an
// already-decoded structure (e.g. holder's YAML mask) rather than parsing
// RFC 6901 text.
func FromTokens(tokens []string) Path {
	cloned := append([]string(nil), tokens...)
	return Path{raw: toRawPointer(cloned), tokens: cloned}
}

func toRawPointer(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(escapeToken(t))
	}
	return b.String()
}

func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

// Depth is the number of tokens, used to sort paths deepest-first.
func (p Path) Depth() int { return len(p.tokens) }

// IsKey reports whether the final token addresses an object member rather
// than an array element. Like the reference implementation, this is a
// syntactic heuristic: a final token that parses as a non-negative integer
// is treated as an array index.
func (p Path) IsKey() bool {
	_, err := strconv.Atoi(p.last())
	return err != nil
}

func (p Path) last() string { return p.tokens[len(p.tokens)-1] }

// SortDeepestFirst orders paths by descending token count, per spec.md
// §4.3: "The Issuer MUST process paths from deepest to shallowest ... to
// make any valid policy order-independent." Ties keep their relative
// input order (stable sort).
func SortDeepestFirst(paths []Path) {
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Depth() > paths[j].Depth()
	})
}

// descend walks one token into node, returning the child. node must be a
// map[string]any (object) or []any (array); any other container is
// PathTypeMismatch.
func descend(node any, token string) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		child, ok := v[token]
		if !ok {
			return nil, fmt.Errorf("%w: %q", sdjerr.PathNotFound, token)
		}
		return child, nil
	case []any:
		idx, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an array index", sdjerr.PathTypeMismatch, token)
		}
		if idx < 0 || idx >= len(v) {
			return nil, fmt.Errorf("%w: index %d out of range", sdjerr.PathNotFound, idx)
		}
		return v[idx], nil
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T", sdjerr.PathTypeMismatch, node)
	}
}

// navigate walks every token in tokens starting from root, read-only.
func navigate(root any, tokens []string) (any, error) {
	node := root
	for _, tok := range tokens {
		next, err := descend(node, tok)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// Validate resolves path against tree without mutating it, surfacing
// PathNotFound / PathTypeMismatch exactly as FindAndHide would.
func Validate(tree any, path Path) error {
	_, err := navigate(tree, path.tokens)
	return err
}

// FindAndHide walks tree to path, mutating it: the addressed value is
// removed from its container and replaced with a digest commitment, and a
// fresh Disclosure is returned for it. See spec.md §4.3.
//
//   - object parent: the member is removed; a fresh object-form Disclosure
//     is built from (fresh salt, key, removed value); its hash is appended
//     to the parent's sibling "_sd" array (created if absent).
//   - array parent: the element is replaced in place by {"...": hash}; a
//     fresh array-form Disclosure is built from (fresh salt, cloned value).
func FindAndHide(tree any, path Path, alg hash.Algorithm, gen *salt.Generator) (*disclosure.Disclosure, error) {
	if len(path.tokens) == 0 {
		return nil, fmt.Errorf("%w: empty path", sdjerr.PathNotFound)
	}

	container, err := navigate(tree, path.tokens[:len(path.tokens)-1])
	if err != nil {
		return nil, err
	}

	last := path.last()

	switch c := container.(type) {
	case map[string]any:
		value, ok := c[last]
		if !ok {
			return nil, fmt.Errorf("%w: %q", sdjerr.PathNotFound, path)
		}
		delete(c, last)

		saltValue, err := gen.Next()
		if err != nil {
			return nil, err
		}
		d, err := disclosure.NewObject(saltValue, last, value)
		if err != nil {
			return nil, err
		}
		digest, err := d.Hash(alg)
		if err != nil {
			return nil, err
		}

		var sd []any
		if existing, ok := c[disclosure.SDKey]; ok {
			sd, ok = existing.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %q already holds a non-array value", sdjerr.MalformedSDJWT, disclosure.SDKey)
			}
		}
		c[disclosure.SDKey] = append(sd, digest)

		return d, nil

	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an array index", sdjerr.PathTypeMismatch, last)
		}
		if idx < 0 || idx >= len(c) {
			return nil, fmt.Errorf("%w: index %d out of range", sdjerr.PathNotFound, idx)
		}
		value := c[idx]

		saltValue, err := gen.Next()
		if err != nil {
			return nil, err
		}
		d, err := disclosure.NewArray(saltValue, value)
		if err != nil {
			return nil, err
		}
		digest, err := d.Hash(alg)
		if err != nil {
			return nil, err
		}

		c[idx] = map[string]any{disclosure.ArrayDigestKey: digest}

		return d, nil

	default:
		return nil, fmt.Errorf("%w: parent of %q is not an object or array", sdjerr.PathTypeMismatch, path)
	}
}

// FindCommitment locates the digest commitment(s) addressed by path in an
// already-issued (mutated) payload, without mutating it. For an
// object-member path it returns the sibling "_sd" array's hashes —
// spec.md §4.3 leaves matching a specific hash to the name carried by the
// candidate Disclosures, since the "_sd" array itself carries no names.
// For an array-element path it returns the single "..." hash.
func FindCommitment(payload any, path Path) (objectCandidates []string, arrayHash string, err error) {
	if path.IsKey() {
		parent, err := navigate(payload, path.tokens[:len(path.tokens)-1])
		if err != nil {
			return nil, "", err
		}
		obj, ok := parent.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("%w: parent of %q is not an object", sdjerr.InvalidCommitment, path)
		}
		raw, ok := obj[disclosure.SDKey]
		if !ok {
			return nil, "", fmt.Errorf("%w: no _sd array at parent of %q", sdjerr.InvalidCommitment, path)
		}
		arr, ok := raw.([]any)
		if !ok {
			return nil, "", fmt.Errorf("%w: _sd is not an array", sdjerr.InvalidCommitment)
		}
		hashes := make([]string, 0, len(arr))
		for _, h := range arr {
			s, ok := h.(string)
			if !ok {
				return nil, "", fmt.Errorf("%w: _sd entry is not a string", sdjerr.InvalidCommitment)
			}
			hashes = append(hashes, s)
		}
		return hashes, "", nil
	}

	value, err := navigate(payload, path.tokens)
	if err != nil {
		return nil, "", err
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is not a commitment object", sdjerr.InvalidCommitment, path)
	}
	h, ok := obj[disclosure.ArrayDigestKey].(string)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q has no %q member", sdjerr.InvalidCommitment, path, disclosure.ArrayDigestKey)
	}
	return nil, h, nil
}
