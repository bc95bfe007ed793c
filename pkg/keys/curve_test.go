package keys_test

import (
	"crypto/elliptic"
	"testing"

	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/boogy/bearer-warden/pkg/keys/keystest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePoint(t *testing.T) {
	priv := keystest.GenerateKey(t, nil)
	ecdhPub, err := priv.PublicKey.ECDH()
	require.NoError(t, err)
	uncompressed := ecdhPub.Bytes()
	compressed := elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)

	offCurve := append([]byte(nil), uncompressed...)
	offCurve[len(offCurve)-1] ^= 0x01

	tests := []struct {
		name    string
		curve   string
		raw     []byte
		wantErr error
	}{
		{name: "uncompressed point", curve: keys.CurveP256, raw: uncompressed},
		{name: "compressed point", curve: keys.CurveP256, raw: compressed},
		{name: "point off the curve", curve: keys.CurveP256, raw: offCurve, wantErr: keys.ErrPointNotOnCurve},
		{name: "truncated point", curve: keys.CurveP256, raw: uncompressed[:40], wantErr: keys.ErrPointNotOnCurve},
		{name: "empty encoding", curve: keys.CurveP256, raw: nil, wantErr: keys.ErrPointNotOnCurve},
		{name: "unknown prefix", curve: keys.CurveP256, raw: append([]byte{0x05}, uncompressed[1:]...), wantErr: keys.ErrPointNotOnCurve},
		{name: "other curve", curve: "P-384", raw: uncompressed, wantErr: keys.ErrUnsupportedCurve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub, err := keys.ValidatePoint(tt.curve, tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pub)
				return
			}
			require.NoError(t, err)
			assert.True(t, pub.Equal(&priv.PublicKey))
		})
	}
}
