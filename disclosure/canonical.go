package disclosure

import (
	"bytes"
	"encoding/json"
)

// canonical re-serializes v the way the reference Python implementation's
// json.dumps does by default: compact except for a single space after every
// top-level-and-nested ',' and ':' outside of strings, and UTF-8 left
// verbatim rather than \u-escaped. This is the single most failure-prone
// design point named in spec.md §4.2 and §9 — digests computed over any
// other serialization will not match a cooperating implementation. It is
// kept as its own dedicated function rather than a shared "pretty" mode of
// a general-purpose encoder, per spec.md §9.
func canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	compact := bytes.TrimRight(buf.Bytes(), "\n")
	return spacedSeparators(compact), nil
}

// spacedSeparators walks compact JSON bytes and inserts a space after every
// ',' and ':' that falls outside a string literal.
func spacedSeparators(b []byte) []byte {
	out := make([]byte, 0, len(b)+len(b)/3)
	inString := false
	escaped := false

	for _, c := range b {
		out = append(out, c)

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',', ':':
			out = append(out, ' ')
		}
	}
	return out
}
