// Package keystest writes PEM key fixtures for tests.
package keystest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	OIDPublicKeyECDSA      = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	OIDNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	OIDNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// GenerateKey returns a fresh ECDSA key on curve (P-256 when nil).
func GenerateKey(t testing.TB, curve elliptic.Curve) *ecdsa.PrivateKey {
	t.Helper()
	if curve == nil {
		curve = elliptic.P256()
	}
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return priv
}

// WriteFile writes data to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// EncodePEM wraps der in a single PEM block of the given type.
func EncodePEM(blockType string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
}

// PublicPEM returns pub as a "PUBLIC KEY" PEM block.
func PublicPEM(t testing.TB, pub any) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return EncodePEM("PUBLIC KEY", der)
}

// PKCS8PEM returns priv as a "PRIVATE KEY" PEM block.
func PKCS8PEM(t testing.TB, priv any) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	return EncodePEM("PRIVATE KEY", der)
}

// ECPEM returns priv as a SEC 1 "EC PRIVATE KEY" PEM block.
func ECPEM(t testing.TB, priv *ecdsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalECPrivateKey(priv)
	require.NoError(t, err)
	return EncodePEM("EC PRIVATE KEY", der)
}

// SPKI builds a SubjectPublicKeyInfo by hand, which allows curves and points
// that crypto/x509 refuses to marshal.
func SPKI(t testing.TB, algorithm, curve asn1.ObjectIdentifier, point []byte) []byte {
	t.Helper()
	params, err := asn1.Marshal(curve)
	require.NoError(t, err)
	der, err := asn1.Marshal(struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}{
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm:  algorithm,
			Parameters: asn1.RawValue{FullBytes: params},
		},
		PublicKey: asn1.BitString{Bytes: point, BitLength: 8 * len(point)},
	})
	require.NoError(t, err)
	return der
}

// KeyPair generates a P-256 key and writes public.pem and private.pem
// (PKCS #8) into dir.
func KeyPair(t testing.TB, dir, prefix string) (priv *ecdsa.PrivateKey, publicPath, privatePath string) {
	t.Helper()
	priv = GenerateKey(t, nil)
	publicPath = WriteFile(t, dir, prefix+"public.pem", PublicPEM(t, &priv.PublicKey))
	privatePath = WriteFile(t, dir, prefix+"private.pem", PKCS8PEM(t, priv))
	return priv, publicPath, privatePath
}
