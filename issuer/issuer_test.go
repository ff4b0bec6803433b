package issuer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selective-disclosure/go-sdjwt/jwscrypto"
)

type stubSigner struct {
	payload []byte
	err     error
}

func (s *stubSigner) Sign(payload []byte) (string, error) {
	s.payload = payload
	if s.err != nil {
		return "", s.err
	}
	return "header." + string(payload) + ".signature", nil
}

func newTestSigner(t *testing.T) *stubSigner {
	t.Helper()
	return &stubSigner{}
}

func TestIssue_RFCExample(t *testing.T) {
	signer := newTestSigner(t)
	iss := New(signer, WithIssuer("https://example.com/issuer"), WithSubject("user_42"))

	claims := map[string]any{
		"given_name":            "John",
		"family_name":           "Doe",
		"email":                 "johndoe@example.com",
		"phone_number":          "+1-202-555-0101",
		"phone_number_verified": true,
		"address": map[string]any{
			"street_address": "123 Main St",
			"locality":       "Anytown",
			"region":         "Anystate",
			"country":        "US",
		},
		"birthdate":   "1940-01-01",
		"updated_at":  1570000000,
		"nationalities": []any{"US", "DE"},
	}

	paths := []string{
		"/given_name",
		"/family_name",
		"/email",
		"/phone_number",
		"/phone_number_verified",
		"/address",
		"/birthdate",
		"/updated_at",
		"/nationalities/1",
		"/nationalities/0",
	}

	sdJWT, err := iss.Issue(claims, paths)
	require.NoError(t, err)
	assert.Len(t, sdJWT.Disclosures, len(paths))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(signer.payload, &payload))

	assert.Equal(t, "sha-256", payload["_sd_alg"])
	assert.Equal(t, "https://example.com/issuer", payload["iss"])
	assert.Equal(t, "user_42", payload["sub"])

	sd, ok := payload["_sd"].([]any)
	require.True(t, ok)
	assert.Len(t, sd, 8)

	nationalities, ok := payload["nationalities"].([]any)
	require.True(t, ok)
	require.Len(t, nationalities, 2)
	for _, n := range nationalities {
		obj, ok := n.(map[string]any)
		require.True(t, ok)
		assert.Len(t, obj, 1)
		assert.NotEmpty(t, obj["..."])
	}

	for _, field := range []string{"given_name", "family_name", "email", "phone_number",
		"phone_number_verified", "address", "birthdate", "updated_at"} {
		_, present := payload[field]
		assert.Falsef(t, present, "%s should have been hidden", field)
	}
}

func TestIssue_NoDisclosures(t *testing.T) {
	signer := newTestSigner(t)
	iss := New(signer)

	sdJWT, err := iss.Issue(map[string]any{"sub": "user_42"}, nil)
	require.NoError(t, err)
	assert.Empty(t, sdJWT.Disclosures)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(signer.payload, &payload))
	_, hasSDAlg := payload["_sd_alg"]
	assert.False(t, hasSDAlg, "_sd_alg should be absent when nothing is hidden")
}

func TestIssue_RejectsUnknownPath(t *testing.T) {
	iss := New(newTestSigner(t))
	_, err := iss.Issue(map[string]any{"sub": "user_42"}, []string{"/does_not_exist"})
	assert.Error(t, err)
}

func TestIssue_DoesNotMutateCallerClaims(t *testing.T) {
	iss := New(newTestSigner(t))
	claims := map[string]any{"given_name": "John"}

	_, err := iss.Issue(claims, []string{"/given_name"})
	require.NoError(t, err)

	_, stillPresent := claims["given_name"]
	assert.True(t, stillPresent)
	_, hasSD := claims["_sd"]
	assert.False(t, hasSD)
}

func TestIssue_ExplicitClaimWinsOverDefault(t *testing.T) {
	iss := New(newTestSigner(t), WithIssuer("https://default.example"))
	sdJWT, err := iss.Issue(map[string]any{"iss": "https://explicit.example"}, nil)
	require.NoError(t, err)

	signer := iss.signer.(*stubSigner)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(signer.payload, &payload))
	assert.Equal(t, "https://explicit.example", payload["iss"])
	assert.NotNil(t, sdJWT)
}

func TestDefaultStdClaims_AppliesLeeway(t *testing.T) {
	now := time.Unix(1700000000, 0)
	claims := DefaultStdClaims(now)

	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.NotBefore)
	require.NotNil(t, claims.Expiry)

	assert.Equal(t, now.Add(-1*time.Hour).Unix(), *claims.IssuedAt)
	assert.Equal(t, *claims.IssuedAt, *claims.NotBefore)
	assert.Equal(t, *claims.IssuedAt+24*60*60, *claims.Expiry)
}

func TestIssue_WithRealSigner(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_ = pub

	signer := jwscrypto.NewJoseSigner(jwscrypto.EdDSA, priv)
	iss := New(signer)

	sdJWT, err := iss.Issue(map[string]any{"sub": "user_42"}, nil)
	if err != nil {
		t.Skipf("go-jose signer unavailable in this environment: %v", err)
		return
	}
	assert.NotEmpty(t, sdJWT.JWS)
}
