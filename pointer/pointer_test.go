package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selective-disclosure/go-sdjwt/hash"
	"github.com/selective-disclosure/go-sdjwt/salt"
)

func testGenerator(t *testing.T) *salt.Generator {
	t.Helper()
	g, err := salt.New(salt.MinSize)
	require.NoError(t, err)
	return g
}

func TestParse_RequiresLeadingSlash(t *testing.T) {
	_, err := Parse("a")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
	_, err = Parse("/a")
	assert.NoError(t, err)
}

func TestParse_UnescapesTokens(t *testing.T) {
	p, err := Parse("/a~1b/c~0d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b", "c~d"}, p.tokens)
}

func TestIsKey(t *testing.T) {
	p, err := Parse("/a/0/b")
	require.NoError(t, err)
	assert.True(t, p.IsKey())

	p, err = Parse("/a/0")
	require.NoError(t, err)
	assert.False(t, p.IsKey())
}

func TestFindAndHide_ObjectMember(t *testing.T) {
	tree := map[string]any{
		"string": "s",
		"int":    42,
		"obj":    map[string]any{"a": 1, "b": 2},
		"array":  []any{0, 1, 2},
	}

	gen := testGenerator(t)

	p, err := Parse("/string")
	require.NoError(t, err)
	d, err := FindAndHide(tree, p, hash.SHA256, gen)
	require.NoError(t, err)
	assert.Equal(t, "string", *d.Name())
	assert.Equal(t, "s", d.Value())
	_, exists := tree["string"]
	assert.False(t, exists)
	assert.Len(t, tree["_sd"], 1)

	p, err = Parse("/int")
	require.NoError(t, err)
	d, err = FindAndHide(tree, p, hash.SHA256, gen)
	require.NoError(t, err)
	assert.Equal(t, "int", *d.Name())
	assert.EqualValues(t, 42, d.Value())
	assert.Len(t, tree["_sd"], 2)
}

func TestFindAndHide_ArrayElement(t *testing.T) {
	tree := map[string]any{"array": []any{"US", "DE"}}

	gen := testGenerator(t)
	p, err := Parse("/array/1")
	require.NoError(t, err)

	d, err := FindAndHide(tree, p, hash.SHA256, gen)
	require.NoError(t, err)
	assert.False(t, d.IsObject())
	assert.Equal(t, "DE", d.Value())

	arr := tree["array"].([]any)
	replaced, ok := arr[1].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, replaced, "...")
	assert.Equal(t, "US", arr[0])
}

func TestFindAndHide_NestedObject(t *testing.T) {
	tree := map[string]any{
		"address": map[string]any{"street_address": "123 Main St"},
	}
	gen := testGenerator(t)
	p, err := Parse("/address/street_address")
	require.NoError(t, err)

	_, err = FindAndHide(tree, p, hash.SHA256, gen)
	require.NoError(t, err)

	addr := tree["address"].(map[string]any)
	_, exists := addr["street_address"]
	assert.False(t, exists)
	assert.Len(t, addr["_sd"], 1)
}

// TestFindAndHide_RejectsNonArraySDKey locks in the fix for an object whose
// "_sd" member is already present but not an array: FindAndHide must
// surface an error rather than silently discarding that value and
// replacing it with a fresh one-element array.
func TestFindAndHide_RejectsNonArraySDKey(t *testing.T) {
	tree := map[string]any{
		"_sd":        "not-an-array",
		"given_name": "John",
	}
	gen := testGenerator(t)
	p, err := Parse("/given_name")
	require.NoError(t, err)

	_, err = FindAndHide(tree, p, hash.SHA256, gen)
	assert.Error(t, err)
	assert.Equal(t, "not-an-array", tree["_sd"])
}

func TestFindAndHide_PathNotFound(t *testing.T) {
	tree := map[string]any{"a": 1}
	gen := testGenerator(t)
	p, err := Parse("/missing")
	require.NoError(t, err)
	_, err = FindAndHide(tree, p, hash.SHA256, gen)
	assert.Error(t, err)
}

func TestFindAndHide_PathTypeMismatch(t *testing.T) {
	tree := map[string]any{"a": []any{1, 2}}
	gen := testGenerator(t)
	p, err := Parse("/a/not-an-index")
	require.NoError(t, err)
	_, err = FindAndHide(tree, p, hash.SHA256, gen)
	assert.Error(t, err)
}

func TestFindCommitment_ObjectAndArray(t *testing.T) {
	tree := map[string]any{
		"given_name": "John",
		"array":      []any{"US", "DE"},
	}
	gen := testGenerator(t)

	namePath, _ := Parse("/given_name")
	d, err := FindAndHide(tree, namePath, hash.SHA256, gen)
	require.NoError(t, err)
	wantHash, err := d.Hash(hash.SHA256)
	require.NoError(t, err)

	hashes, single, err := FindCommitment(tree, namePath)
	require.NoError(t, err)
	assert.Empty(t, single)
	assert.Contains(t, hashes, wantHash)

	arrPath, _ := Parse("/array/0")
	d2, err := FindAndHide(tree, arrPath, hash.SHA256, gen)
	require.NoError(t, err)
	wantHash2, err := d2.Hash(hash.SHA256)
	require.NoError(t, err)

	hashes2, single2, err := FindCommitment(tree, arrPath)
	require.NoError(t, err)
	assert.Nil(t, hashes2)
	assert.Equal(t, wantHash2, single2)
}

func TestSortDeepestFirst(t *testing.T) {
	p1, _ := Parse("/a")
	p2, _ := Parse("/a/b/c")
	p3, _ := Parse("/a/b")

	paths := []Path{p1, p2, p3}
	SortDeepestFirst(paths)

	assert.Equal(t, "/a/b/c", paths[0].String())
	assert.Equal(t, "/a/b", paths[1].String())
	assert.Equal(t, "/a", paths[2].String())
}

func TestFindAndHide_DeepestFirstIsOrderIndependent(t *testing.T) {
	build := func(order []string) map[string]any {
		tree := map[string]any{
			"address": map[string]any{"street_address": "123 Main St", "locality": "Anytown"},
		}
		paths := make([]Path, len(order))
		for i, raw := range order {
			p, err := Parse(raw)
			require.NoError(t, err)
			paths[i] = p
		}
		SortDeepestFirst(paths)
		gen := testGenerator(t)
		for _, p := range paths {
			_, err := FindAndHide(tree, p, hash.SHA256, gen)
			require.NoError(t, err)
		}
		return tree
	}

	a := build([]string{"/address", "/address/street_address"})
	b := build([]string{"/address/street_address", "/address"})

	// Both orders must finish with the address object fully hidden: the
	// shallow path always wins after deepest-first sorting because it is
	// applied last, hiding the already-rewritten address object.
	assert.Len(t, a["_sd"], 1)
	assert.Len(t, b["_sd"], 1)
}

func TestFromTokens_EscapesAndRoundTrips(t *testing.T) {
	p := FromTokens([]string{"a/b", "c~d"})
	assert.Equal(t, "/a~1b/c~0d", p.String())

	reparsed, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.tokens, reparsed.tokens)
}
