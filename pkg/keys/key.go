package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// Role tells whether a Key holds only a public point or also the scalar.
type Role int

const (
	RolePublic Role = iota + 1
	RolePrivate
)

func (r Role) String() string {
	switch r {
	case RolePublic:
		return "public"
	case RolePrivate:
		return "private"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Key is a P-256 key normalized for ES256. It is backed by a JSON Web Key
// whose key ID is the RFC 7638 SHA-256 thumbprint of the public part.
// A Key is immutable once built and safe for concurrent use.
type Key struct {
	role Role
	jwk  jose.JSONWebKey
}

// NewPublicKey wraps an ECDSA public key. Anything but P-256 is refused.
func NewPublicKey(pub *ecdsa.PublicKey) (*Key, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curveOf(pub))
	}
	return newKey(RolePublic, pub)
}

// NewPrivateKey wraps an ECDSA private key. Anything but P-256 is refused.
func NewPrivateKey(priv *ecdsa.PrivateKey) (*Key, error) {
	if priv == nil || priv.Curve != elliptic.P256() {
		var pub *ecdsa.PublicKey
		if priv != nil {
			pub = &priv.PublicKey
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curveOf(pub))
	}
	return newKey(RolePrivate, priv)
}

func newKey(role Role, material any) (*Key, error) {
	jwk := jose.JSONWebKey{
		Key:       material,
		Algorithm: AlgorithmES256,
		Use:       "sig",
	}
	if !jwk.Valid() {
		return nil, fmt.Errorf("%w: key material rejected", ErrMalformedKey)
	}

	thumb, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to compute key thumbprint: %w", err)
	}
	jwk.KeyID = base64.RawURLEncoding.EncodeToString(thumb)

	return &Key{role: role, jwk: jwk}, nil
}

func curveOf(pub *ecdsa.PublicKey) string {
	if pub == nil || pub.Curve == nil {
		return "unknown"
	}
	return pub.Curve.Params().Name
}

func (k *Key) Role() Role { return k.role }

func (k *Key) IsPrivate() bool { return k.role == RolePrivate }

// Curve always reports CurveP256.
func (k *Key) Curve() string { return curveOf(k.PublicKey()) }

// Algorithm always reports AlgorithmES256.
func (k *Key) Algorithm() string { return k.jwk.Algorithm }

func (k *Key) KeyID() string { return k.jwk.KeyID }

// PublicKey returns the public point. For private keys it is the point
// derived from the scalar.
func (k *Key) PublicKey() *ecdsa.PublicKey {
	switch v := k.jwk.Key.(type) {
	case *ecdsa.PublicKey:
		return v
	case *ecdsa.PrivateKey:
		return &v.PublicKey
	default:
		return nil
	}
}

// PrivateKey returns the scalar-bearing key when the role is private.
func (k *Key) PrivateKey() (*ecdsa.PrivateKey, bool) {
	priv, ok := k.jwk.Key.(*ecdsa.PrivateKey)
	return priv, ok
}

// Public returns the public half of k. Public keys return themselves.
func (k *Key) Public() *Key {
	if k.role == RolePublic {
		return k
	}
	jwk := k.jwk.Public()
	return &Key{role: RolePublic, jwk: jwk}
}

// JWK returns the public JSON Web Key, suitable for publication.
func (k *Key) JWK() jose.JSONWebKey {
	return k.jwk.Public()
}
