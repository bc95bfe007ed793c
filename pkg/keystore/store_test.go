package keystore_test

import (
	"testing"

	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/boogy/bearer-warden/pkg/keys/keystest"
	"github.com/boogy/bearer-warden/pkg/keystore"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *keys.Key {
	t.Helper()
	key, err := keys.NewPrivateKey(keystest.GenerateKey(t, nil))
	require.NoError(t, err)
	return key
}

func signedToken(t *testing.T, key *keys.Key, claims jwt.MapClaims) []byte {
	t.Helper()
	priv, ok := key.PrivateKey()
	require.True(t, ok)
	s, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	require.NoError(t, err)
	return []byte(s)
}

func TestSingleStore(t *testing.T) {
	key := newKey(t)
	store := keystore.FromKey(key)

	assert.Equal(t, keystore.KindSingle, store.Kind())
	for _, token := range [][]byte{nil, []byte("garbage"), signedToken(t, newKey(t), jwt.MapClaims{"iss": "x"})} {
		assert.Equal(t, []*keys.Key{key}, store.CandidateKeys(token))
	}
	assert.Equal(t, []*keys.Key{key}, store.Keys())
}

func TestListStore(t *testing.T) {
	k1, k2 := newKey(t), newKey(t)
	input := []*keys.Key{k1, k2}
	store := keystore.FromKeys(input)

	// Later changes to the caller's slice must not leak into the store.
	input[0] = k2

	assert.Equal(t, keystore.KindList, store.Kind())
	assert.Equal(t, []*keys.Key{k1, k2}, store.CandidateKeys([]byte("anything")))

	candidates := store.CandidateKeys(nil)
	candidates[0] = nil
	assert.Equal(t, []*keys.Key{k1, k2}, store.CandidateKeys(nil))
}

func TestListStore_KeysDeduplicated(t *testing.T) {
	k1, k2 := newKey(t), newKey(t)
	store := keystore.FromKeys([]*keys.Key{k1, k2, k1.Public()})

	assert.Len(t, store.CandidateKeys(nil), 3)
	assert.Equal(t, []*keys.Key{k1, k2}, store.Keys())
}

func TestIssuerStore(t *testing.T) {
	ka, kb := newKey(t), newKey(t)
	store := keystore.FromIssuers(map[string]*keys.Key{
		"issuer-a": ka,
		"issuer-b": kb,
	})
	assert.Equal(t, keystore.KindIssuer, store.Kind())

	tests := []struct {
		name  string
		token []byte
		want  []*keys.Key
	}{
		{
			name:  "mapped issuer",
			token: signedToken(t, kb, jwt.MapClaims{"iss": "issuer-a"}),
			want:  []*keys.Key{ka},
		},
		{
			name:  "second mapped issuer",
			token: signedToken(t, ka, jwt.MapClaims{"iss": "issuer-b"}),
			want:  []*keys.Key{kb},
		},
		{
			name:  "unmapped issuer",
			token: signedToken(t, ka, jwt.MapClaims{"iss": "issuer-c"}),
		},
		{
			name:  "missing issuer",
			token: signedToken(t, ka, jwt.MapClaims{"sub": "someone"}),
		},
		{
			name:  "issuer is not a string",
			token: signedToken(t, ka, jwt.MapClaims{"iss": 42}),
		},
		{
			name:  "not a token",
			token: []byte("not.a.token"),
		},
		{
			name:  "empty token",
			token: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.CandidateKeys(tt.token)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"issuer-a", "issuer-b"}, store.Issuers())
	assert.Equal(t, []*keys.Key{ka, kb}, store.Keys())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "single", keystore.KindSingle.String())
	assert.Equal(t, "list", keystore.KindList.String())
	assert.Equal(t, "issuer", keystore.KindIssuer.String())
	assert.Equal(t, "Kind(0)", keystore.Kind(0).String())
}
