package keys

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
)

const (
	// CurveP256 is the only named curve keys may live on.
	CurveP256 = "P-256"
	// AlgorithmES256 is the only signature algorithm keys are tagged with.
	AlgorithmES256 = "ES256"

	p256ByteLen = 32
)

// ValidatePoint checks that raw is a SEC 1 encoded point (uncompressed or
// compressed) on the named curve and returns it as an ECDSA public key.
func ValidatePoint(curve string, raw []byte) (*ecdsa.PublicKey, error) {
	if curve != CurveP256 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, curve)
	}
	if len(raw) == 0 {
		return nil, ErrPointNotOnCurve
	}

	switch raw[0] {
	case 0x04:
		// crypto/ecdh rejects wrong lengths, the identity and off-curve points.
		if _, err := ecdh.P256().NewPublicKey(raw); err != nil {
			return nil, ErrPointNotOnCurve
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(raw[1 : 1+p256ByteLen]),
			Y:     new(big.Int).SetBytes(raw[1+p256ByteLen:]),
		}, nil
	case 0x02, 0x03:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw)
		if x == nil {
			return nil, ErrPointNotOnCurve
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	default:
		return nil, ErrPointNotOnCurve
	}
}
