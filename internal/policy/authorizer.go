// Package policy decides what a caller may see of the ledger.
package policy

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"fpledger/internal/structures"
)

const (
	HeaderAPIKey = "X-API-Key"
	bearerPrefix = "Bearer "
)

// Authorizer reports whether the caller of r may see unredacted records.
type Authorizer interface {
	IsPrivileged(r *http.Request) bool
}

// SharedSecretAuthorizer grants privilege to callers presenting the configured
// key in X-API-Key or as a bearer token. With no key configured nobody is
// privileged.
type SharedSecretAuthorizer struct {
	secret []byte
}

func NewSharedSecretAuthorizer(conf *structures.Config) Authorizer {
	return &SharedSecretAuthorizer{secret: []byte(conf.Access.APIKey)}
}

func (a *SharedSecretAuthorizer) IsPrivileged(r *http.Request) bool {
	if len(a.secret) == 0 {
		return false
	}
	presented := r.Header.Get(HeaderAPIKey)
	if presented == "" {
		auth := r.Header.Get("Authorization")
		if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
			presented = strings.TrimSpace(auth[len(bearerPrefix):])
		}
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), a.secret) == 1
}
