package keys

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/ecdsa"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
)

const (
	pemTypePKCS8     = "PRIVATE KEY"
	pemTypeECPrivate = "EC PRIVATE KEY"
)

// Loader reads PEM key files through a Source and normalizes them.
type Loader struct {
	source Source
}

// NewLoader returns a Loader backed by source, or by the local filesystem
// when source is nil.
func NewLoader(source Source) *Loader {
	if source == nil {
		source = FileSource{}
	}
	return &Loader{source: source}
}

var defaultLoader = NewLoader(nil)

// LoadPublicKey loads a public key from a PEM file on disk.
func LoadPublicKey(path string) (*Key, error) {
	return defaultLoader.LoadPublicKey(context.Background(), path)
}

// LoadPrivateKey loads a private key from a PEM file on disk.
func LoadPrivateKey(path string) (*Key, error) {
	return defaultLoader.LoadPrivateKey(context.Background(), path)
}

// LoadPublicKeys loads every path it can; see Loader.LoadPublicKeys.
func LoadPublicKeys(paths []string) []*Key {
	return defaultLoader.LoadPublicKeys(context.Background(), paths)
}

// LoadPrivateKeys loads every path it can; see Loader.LoadPrivateKeys.
func LoadPrivateKeys(paths []string) []*Key {
	return defaultLoader.LoadPrivateKeys(context.Background(), paths)
}

func (l *Loader) LoadPublicKey(ctx context.Context, path string) (*Key, error) {
	data, err := l.source.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey(data)
}

func (l *Loader) LoadPrivateKey(ctx context.Context, path string) (*Key, error) {
	data, err := l.source.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(data)
}

// LoadPublicKeys is best effort: a path that fails to load is left out of
// the result and the others keep their relative order. Callers that need to
// know which path failed must use LoadPublicKey.
func (l *Loader) LoadPublicKeys(ctx context.Context, paths []string) []*Key {
	return loadAll(ctx, paths, l.LoadPublicKey)
}

// LoadPrivateKeys is the private key counterpart of LoadPublicKeys.
func (l *Loader) LoadPrivateKeys(ctx context.Context, paths []string) []*Key {
	return loadAll(ctx, paths, l.LoadPrivateKey)
}

func loadAll(ctx context.Context, paths []string, load func(context.Context, string) (*Key, error)) []*Key {
	loaded := make([]*Key, 0, len(paths))
	for _, path := range paths {
		key, err := load(ctx, path)
		if err != nil {
			slog.Debug("Skipping key file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		loaded = append(loaded, key)
	}
	return loaded
}

// ParsePublicKey decodes the first PEM block of data as a SubjectPublicKeyInfo
// holding a P-256 point.
func ParsePublicKey(data []byte) (*Key, error) {
	blocks := decodePEM(data)
	if len(blocks) == 0 {
		return nil, ErrNoPEMContent
	}

	info, err := parsePublicKeyInfo(blocks[0].Bytes)
	if err != nil {
		return nil, err
	}
	if !info.Algorithm.Algorithm.Equal(oidPublicKeyECDSA) {
		return nil, ErrInvalidKeyType
	}

	curve := curveName(namedCurve(info.Algorithm.Parameters))
	if curve != CurveP256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
	}

	pub, err := ValidatePoint(curve, info.PublicKey.RightAlign())
	if err != nil {
		return nil, err
	}
	return NewPublicKey(pub)
}

// ParsePrivateKey decodes the first PKCS #8 or SEC 1 private key block of
// data and derives its public point.
func ParsePrivateKey(data []byte) (*Key, error) {
	block := firstPrivateBlock(data)
	if block == nil {
		return nil, ErrNoPrivateKey
	}

	var (
		ecKey *ecPrivateKey
		curve asn1.ObjectIdentifier
		err   error
	)
	switch block.Type {
	case pemTypePKCS8:
		var info pkcs8
		if err := unmarshalDER(block.Bytes, &info); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPrivateKey, err)
		}
		if !info.Algo.Algorithm.Equal(oidPublicKeyECDSA) {
			return nil, ErrPrivateKeyType
		}
		if ecKey, err = parseECPrivateKey(info.PrivateKey); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPrivateKey, err)
		}
		curve = namedCurve(info.Algo.Parameters)
		if curve == nil {
			curve = ecKey.NamedCurveOID
		}
	case pemTypeECPrivate:
		if ecKey, err = parseECPrivateKey(block.Bytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPrivateKey, err)
		}
		curve = ecKey.NamedCurveOID
	}

	if name := curveName(curve); name != CurveP256 {
		return nil, fmt.Errorf("%w: %w: %s", ErrPrivateKeyType, ErrUnsupportedCurve, name)
	}

	scalar, err := fixedScalar(ecKey.PrivateKey)
	if err != nil {
		return nil, err
	}
	priv, err := derivePrivateKey(scalar)
	if err != nil {
		return nil, err
	}

	if embedded := ecKey.PublicKey.RightAlign(); len(embedded) > 0 {
		pub, err := ValidatePoint(CurveP256, embedded)
		if err != nil {
			return nil, err
		}
		if !pub.Equal(&priv.PublicKey) {
			return nil, ErrKeyMismatch
		}
	}
	return NewPrivateKey(priv)
}

// derivePrivateKey multiplies the P-256 base point by scalar.
func derivePrivateKey(scalar []byte) (*ecdsa.PrivateKey, error) {
	ecdhKey, err := ecdh.P256().NewPrivateKey(scalar)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid scalar", ErrNoPrivateKey)
	}
	pub, err := ValidatePoint(CurveP256, ecdhKey.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}
	return &ecdsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(scalar),
	}, nil
}

// fixedScalar left-pads the scalar to the P-256 field size. Some encoders
// strip leading zero bytes.
func fixedScalar(raw []byte) ([]byte, error) {
	raw = bytes.TrimLeft(raw, "\x00")
	if len(raw) == 0 || len(raw) > p256ByteLen {
		return nil, fmt.Errorf("%w: invalid scalar length", ErrNoPrivateKey)
	}
	scalar := make([]byte, p256ByteLen)
	copy(scalar[p256ByteLen-len(raw):], raw)
	return scalar, nil
}

func decodePEM(data []byte) []*pem.Block {
	var blocks []*pem.Block
	for {
		block, rest := pem.Decode(data)
		if block == nil {
			return blocks
		}
		blocks = append(blocks, block)
		data = rest
	}
}

func firstPrivateBlock(data []byte) *pem.Block {
	for _, block := range decodePEM(data) {
		if block.Type == pemTypePKCS8 || block.Type == pemTypeECPrivate {
			return block
		}
	}
	return nil
}
