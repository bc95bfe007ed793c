// Package keystore selects which verification keys a bearer token is tried
// against. A Store is built once at startup and never changes afterwards,
// so it can be shared by any number of concurrent requests.
package keystore

import (
	"fmt"
	"sort"

	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/golang-jwt/jwt/v5"
)

// Kind identifies the candidate selection strategy of a Store.
type Kind int

const (
	// KindSingle tries every token against one key.
	KindSingle Kind = iota + 1
	// KindList tries every token against all keys, in order.
	KindList
	// KindIssuer picks one key using the token's unverified "iss" claim.
	KindIssuer
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindList:
		return "list"
	case KindIssuer:
		return "issuer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Store is a closed union over the three strategies; only the fields of
// its kind are set.
type Store struct {
	kind    Kind
	single  *keys.Key
	list    []*keys.Key
	issuers map[string]*keys.Key
}

// FromKey builds a Store that offers key for every token.
func FromKey(key *keys.Key) *Store {
	return &Store{kind: KindSingle, single: key}
}

// FromKeys builds a Store that offers all of list for every token. The
// slice is copied.
func FromKeys(list []*keys.Key) *Store {
	return &Store{kind: KindList, list: append([]*keys.Key(nil), list...)}
}

// FromIssuers builds a Store keyed by issuer. The map is copied.
func FromIssuers(issuers map[string]*keys.Key) *Store {
	m := make(map[string]*keys.Key, len(issuers))
	for iss, key := range issuers {
		m[iss] = key
	}
	return &Store{kind: KindIssuer, issuers: m}
}

func (s *Store) Kind() Kind { return s.kind }

// CandidateKeys returns the keys token should be verified against, in the
// order they are to be tried. An empty result means the token cannot be
// accepted.
//
// For issuer stores the issuer is read without checking the signature. It
// only narrows the search; trust still comes from verifying against the
// returned key.
func (s *Store) CandidateKeys(token []byte) []*keys.Key {
	switch s.kind {
	case KindSingle:
		return []*keys.Key{s.single}
	case KindList:
		return append([]*keys.Key(nil), s.list...)
	case KindIssuer:
		iss, ok := unverifiedIssuer(token)
		if !ok {
			return nil
		}
		key, ok := s.issuers[iss]
		if !ok {
			return nil
		}
		return []*keys.Key{key}
	default:
		return nil
	}
}

// Keys returns every distinct key held by the store. Issuer stores list
// their keys sorted by issuer.
func (s *Store) Keys() []*keys.Key {
	switch s.kind {
	case KindSingle:
		return []*keys.Key{s.single}
	case KindList:
		return dedupe(s.list)
	case KindIssuer:
		names := make([]string, 0, len(s.issuers))
		for iss := range s.issuers {
			names = append(names, iss)
		}
		sort.Strings(names)

		ordered := make([]*keys.Key, 0, len(names))
		for _, iss := range names {
			ordered = append(ordered, s.issuers[iss])
		}
		return dedupe(ordered)
	default:
		return nil
	}
}

// Issuers returns the configured issuers, sorted. It is empty unless the
// store is an issuer store.
func (s *Store) Issuers() []string {
	names := make([]string, 0, len(s.issuers))
	for iss := range s.issuers {
		names = append(names, iss)
	}
	sort.Strings(names)
	return names
}

func dedupe(list []*keys.Key) []*keys.Key {
	seen := make(map[string]bool, len(list))
	out := make([]*keys.Key, 0, len(list))
	for _, key := range list {
		if seen[key.KeyID()] {
			continue
		}
		seen[key.KeyID()] = true
		out = append(out, key)
	}
	return out
}

var unverifiedParser = jwt.NewParser()

func unverifiedIssuer(token []byte) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(string(token), claims); err != nil {
		return "", false
	}
	iss, err := claims.GetIssuer()
	if err != nil || iss == "" {
		return "", false
	}
	return iss, true
}
