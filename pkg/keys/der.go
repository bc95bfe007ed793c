package keys

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
)

var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	oidNamedCurveP224      = asn1.ObjectIdentifier{1, 3, 132, 0, 33}
	oidNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidNamedCurveP384      = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidNamedCurveP521      = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// publicKeyInfo is the SubjectPublicKeyInfo structure from RFC 5280.
type publicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// pkcs8 is the PrivateKeyInfo structure from RFC 5208. Optional attributes
// are not decoded.
type pkcs8 struct {
	Version    int
	Algo       pkix.AlgorithmIdentifier
	PrivateKey []byte
}

// ecPrivateKey is the ECPrivateKey structure from SEC 1 / RFC 5915.
type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

const ecPrivateKeyVersion = 1

func unmarshalDER(der []byte, out any) error {
	rest, err := asn1.Unmarshal(der, out)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.New("trailing data after DER structure")
	}
	return nil
}

func parsePublicKeyInfo(der []byte) (*publicKeyInfo, error) {
	var info publicKeyInfo
	if err := unmarshalDER(der, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
	}
	return &info, nil
}

func parseECPrivateKey(der []byte) (*ecPrivateKey, error) {
	var key ecPrivateKey
	if err := unmarshalDER(der, &key); err != nil {
		return nil, err
	}
	if key.Version != ecPrivateKeyVersion {
		return nil, fmt.Errorf("unknown EC private key version %d", key.Version)
	}
	return &key, nil
}

// namedCurve decodes the curve OID carried in EC algorithm parameters.
// Explicit curve parameters are not supported and yield nil.
func namedCurve(params asn1.RawValue) asn1.ObjectIdentifier {
	if len(params.FullBytes) == 0 {
		return nil
	}
	var oid asn1.ObjectIdentifier
	if err := unmarshalDER(params.FullBytes, &oid); err != nil {
		return nil
	}
	return oid
}

func curveName(oid asn1.ObjectIdentifier) string {
	switch {
	case oid == nil:
		return "unknown"
	case oid.Equal(oidNamedCurveP256):
		return CurveP256
	case oid.Equal(oidNamedCurveP224):
		return "P-224"
	case oid.Equal(oidNamedCurveP384):
		return "P-384"
	case oid.Equal(oidNamedCurveP521):
		return "P-521"
	case oid.Equal(oidNamedCurveSecp256k1):
		return "secp256k1"
	default:
		return oid.String()
	}
}
