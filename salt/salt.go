// Package salt implements the per-claim salt generator described in
// spec.md §4.1: a cryptographically random byte string, at least 16 bytes,
// unique per disclosure.
package salt

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/selective-disclosure/go-sdjwt/sdjerr"
)

// MinSize is the RECOMMENDED minimum length, in bytes, of a salt's random
// portion (128 bits).
const MinSize = 16

// defaultRead is the entropy source every Generator draws from. The
// e2e_test build tag (mt19937.go) overrides it at init time with a
// deterministic, reproducible stream for interoperability testing only.
var defaultRead = rand.Read

// Generator produces fresh salts for one issuance. It is not safe for
// concurrent use; callers issuing in parallel should use one Generator per
// goroutine (see spec.md §5).
type Generator struct {
	size int
	read func([]byte) (int, error)
}

// New returns a Generator drawing size bytes per salt from a CSPRNG. size
// below MinSize is a programming error and is rejected immediately.
func New(size int) (*Generator, error) {
	if size < MinSize {
		return nil, fmt.Errorf("%w: %d < %d", sdjerr.SaltTooSmall, size, MinSize)
	}
	return &Generator{size: size, read: defaultRead}, nil
}

// Default returns a Generator using the recommended minimum salt size.
func Default() *Generator {
	g, _ := New(MinSize)
	return g
}

// Next draws a fresh salt and returns its base64url-no-pad encoding, the
// form a Disclosure stores and transports.
func (g *Generator) Next() (string, error) {
	buf := make([]byte, g.size)
	if _, err := g.read(buf); err != nil {
		return "", fmt.Errorf("%w: %s", sdjerr.RngUnavailable, err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
