// Package verifier checks compact JOSE tokens against candidate keys.
package verifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boogy/bearer-warden/pkg/keys"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// Variant is the kind of token that was decoded.
type Variant int

const (
	VariantUnsecured Variant = iota + 1
	VariantSigned
	VariantEncrypted
)

func (v Variant) String() string {
	switch v {
	case VariantUnsecured:
		return "unsecured"
	case VariantSigned:
		return "signed"
	case VariantEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

var (
	ErrMalformedToken   = errors.New("verifier: malformed token")
	ErrNoCandidates     = errors.New("verifier: no candidate keys")
	ErrSignatureInvalid = errors.New("verifier: signature does not match any candidate key")
	ErrDecryptFailed    = errors.New("verifier: no candidate key can decrypt the token")
)

// Result is a successfully decoded token.
type Result struct {
	Variant Variant
	Payload []byte
	// Key is the candidate that verified or decrypted the token. It is nil
	// for unsecured tokens.
	Key *keys.Key
}

var (
	signatureAlgorithms = []jose.SignatureAlgorithm{jose.ES256}
	keyAlgorithms       = []jose.KeyAlgorithm{jose.ECDH_ES, jose.ECDH_ES_A128KW, jose.ECDH_ES_A192KW, jose.ECDH_ES_A256KW}
	contentEncryptions  = []jose.ContentEncryption{jose.A128GCM, jose.A192GCM, jose.A256GCM, jose.A128CBC_HS256, jose.A192CBC_HS384, jose.A256CBC_HS512}

	segmentParser = jwt.NewParser()
)

// Verifier decodes compact JWS and JWE tokens. The zero value is ready to
// use and it holds no state.
type Verifier struct{}

func New() *Verifier {
	return &Verifier{}
}

// Verify decodes token and checks it against candidates, each tried at most
// once and in order; the first key that works wins.
//
// Signed tokens are only accepted with ES256. Tokens whose header says
// "alg":"none" are decoded without any check and reported as
// VariantUnsecured; encrypted tokens are decrypted with the first private
// candidate that can do so. Callers decide which variants they trust.
func (v *Verifier) Verify(token []byte, candidates []*keys.Key) (*Result, error) {
	switch bytes.Count(token, []byte{'.'}) {
	case 2:
		return v.verifySigned(token, candidates)
	case 4:
		return v.decrypt(token, candidates)
	default:
		return nil, ErrMalformedToken
	}
}

func (v *Verifier) verifySigned(token []byte, candidates []*keys.Key) (*Result, error) {
	segments := bytes.Split(token, []byte{'.'})

	alg, err := headerAlgorithm(segments[0])
	if err != nil {
		return nil, err
	}
	if alg == "none" {
		payload, err := segmentParser.DecodeSegment(string(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return &Result{Variant: VariantUnsecured, Payload: payload}, nil
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	jws, err := jose.ParseSigned(string(token), signatureAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	for _, key := range candidates {
		payload, err := jws.Verify(key.PublicKey())
		if err == nil {
			return &Result{Variant: VariantSigned, Payload: payload, Key: key}, nil
		}
	}
	return nil, ErrSignatureInvalid
}

func (v *Verifier) decrypt(token []byte, candidates []*keys.Key) (*Result, error) {
	jwe, err := jose.ParseEncrypted(string(token), keyAlgorithms, contentEncryptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	for _, key := range candidates {
		priv, ok := key.PrivateKey()
		if !ok {
			continue
		}
		payload, err := jwe.Decrypt(priv)
		if err == nil {
			return &Result{Variant: VariantEncrypted, Payload: payload, Key: key}, nil
		}
	}
	return nil, ErrDecryptFailed
}

func headerAlgorithm(segment []byte) (string, error) {
	raw, err := segmentParser.DecodeSegment(string(segment))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return header.Alg, nil
}
