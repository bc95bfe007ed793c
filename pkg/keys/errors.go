package keys

import "errors"

// Errors returned while turning PEM material into a Key. They are wrapped with
// extra detail where useful, so callers should compare with errors.Is.
var (
	ErrNoPEMContent     = errors.New("no PEM content")
	ErrMalformedKey     = errors.New("malformed key data")
	ErrInvalidKeyType   = errors.New("invalid key type")
	ErrUnsupportedCurve = errors.New("unsupported curve")
	ErrPointNotOnCurve  = errors.New("point not on curve")
	ErrNoPrivateKey     = errors.New("no private key")
	ErrPrivateKeyType   = errors.New("private key type not supported")
	ErrKeyMismatch      = errors.New("public key does not match private key")
)
