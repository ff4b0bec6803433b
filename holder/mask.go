package holder

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/selective-disclosure/go-sdjwt/jwscrypto"
	"github.com/selective-disclosure/go-sdjwt/pointer"
	"github.com/selective-disclosure/go-sdjwt/sdjerr"
	"github.com/selective-disclosure/go-sdjwt"
)

// sdTag is the YAML tag a mask uses to mark a claim for selection, matching
// original_source/src/issuer/select.rs's `!sd` tag (there used on the
// Issuer's input; here repurposed for the Holder choosing what to reveal
// from an already-issued token).
const sdTag = "!sd"

// SelectWithMask is an alternative to Select's flat path list: paths are
// expressed as a YAML document shaped like the claim tree itself, with each
// claim to reveal tagged "!sd". This is the selection input spec.md §9
// names as "only partially implemented in the source."
//
// Example mask selecting given_name and the first nationality entry:
//
//	!sd given_name: true
//	nationalities:
//	  - !sd US
func SelectWithMask(token *sdjwt.SDJWT, verifier jwscrypto.Verifier, mask []byte) (*sdjwt.SDJWT, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(mask, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid mask yaml: %s", sdjerr.SelectionUnsupported, err.Error())
	}
	if len(doc.Content) == 0 {
		return Select(token, verifier, nil)
	}

	var paths []string
	collectMaskPaths(doc.Content[0], nil, &paths)

	return Select(token, verifier, paths)
}

// collectMaskPaths walks a parsed mask node, appending an RFC 6901 pointer
// string to *paths for every mapping key and every sequence item tagged
// "!sd". A tag on a mapping value is not looked at; only its key's tag
// selects that member.
func collectMaskPaths(node *yaml.Node, prefix []string, paths *[]string) {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			value := node.Content[i+1]

			token := key.Value
			here := append(append([]string(nil), prefix...), token)

			if key.Tag == sdTag {
				*paths = append(*paths, pointer.FromTokens(here).String())
				continue
			}
			collectMaskPaths(value, here, paths)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			here := append(append([]string(nil), prefix...), strconv.Itoa(i))
			if item.Tag == sdTag {
				*paths = append(*paths, pointer.FromTokens(here).String())
				continue
			}
			collectMaskPaths(item, here, paths)
		}
	}
}
