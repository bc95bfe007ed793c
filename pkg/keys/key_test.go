package keys_test

import (
	"crypto/elliptic"
	"testing"

	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/boogy/bearer-warden/pkg/keys/keystest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey_RejectsOtherCurves(t *testing.T) {
	p384 := keystest.GenerateKey(t, elliptic.P384())

	_, err := keys.NewPublicKey(&p384.PublicKey)
	assert.ErrorIs(t, err, keys.ErrUnsupportedCurve)

	_, err = keys.NewPrivateKey(p384)
	assert.ErrorIs(t, err, keys.ErrUnsupportedCurve)

	_, err = keys.NewPublicKey(nil)
	assert.ErrorIs(t, err, keys.ErrUnsupportedCurve)
}

func TestKey_Public(t *testing.T) {
	priv := keystest.GenerateKey(t, nil)

	key, err := keys.NewPrivateKey(priv)
	require.NoError(t, err)

	pub := key.Public()
	assert.Equal(t, keys.RolePublic, pub.Role())
	assert.Equal(t, key.KeyID(), pub.KeyID())
	assert.True(t, pub.PublicKey().Equal(&priv.PublicKey))
	assert.Same(t, pub, pub.Public())

	jwk := key.JWK()
	assert.True(t, jwk.IsPublic())
	assert.Equal(t, keys.AlgorithmES256, jwk.Algorithm)
	assert.Equal(t, "sig", jwk.Use)
	assert.Equal(t, key.KeyID(), jwk.KeyID)
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "public", keys.RolePublic.String())
	assert.Equal(t, "private", keys.RolePrivate.String())
	assert.Equal(t, "Role(7)", keys.Role(7).String())
}
