// Package auth implements the shared-secret header check guarding each
// relay direction.
package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/Jelka-FMF/Veter/internal/domain"
)

const (
	HeaderSubprotocol   = "Sec-WebSocket-Protocol"
	HeaderAuthorization = "Authorization"
)

// Gate accepts a request when one header carries exactly the expected
// credential. It keeps no state between checks.
type Gate struct {
	header   string
	expected string
}

// New returns a gate comparing header against expected.
func New(header, expected string) *Gate {
	return &Gate{header: http.CanonicalHeaderKey(header), expected: expected}
}

// NewSubprotocol guards WebSocket ingress: the client offers the
// subprotocol "auth-<token>".
func NewSubprotocol(token string) *Gate {
	return New(HeaderSubprotocol, "auth-"+token)
}

// NewAuthorization guards SSE egress: "Authorization: Token <token>".
func NewAuthorization(token string) *Gate {
	return New(HeaderAuthorization, "Token "+token)
}

// Header returns the canonical name of the checked header.
func (g *Gate) Header() string {
	return g.header
}

// Check returns domain.ErrInvalidToken unless the header is present with the
// exact expected value. A missing header and a wrong value fail the same way.
func (g *Gate) Check(h http.Header) error {
	values := h.Values(g.header)
	if len(values) != 1 {
		return domain.ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(values[0]), []byte(g.expected)) != 1 {
		return domain.ErrInvalidToken
	}
	return nil
}
