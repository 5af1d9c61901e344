package auth

import (
	"net/http"
	"testing"

	"github.com/Jelka-FMF/Veter/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestGate_Authorization(t *testing.T) {
	gate := NewAuthorization("secret")

	tests := []struct {
		name    string
		values  []string
		wantErr bool
	}{
		{"exact match", []string{"Token secret"}, false},
		{"missing header", nil, true},
		{"empty value", []string{""}, true},
		{"wrong token", []string{"Token wrong"}, true},
		{"one character off", []string{"Token secreT"}, true},
		{"trailing character", []string{"Token secret1"}, true},
		{"missing scheme", []string{"secret"}, true},
		{"bearer scheme", []string{"Bearer secret"}, true},
		{"lower-case scheme", []string{"token secret"}, true},
		{"trailing space", []string{"Token secret "}, true},
		{"duplicate headers", []string{"Token secret", "Token secret"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, v := range tt.values {
				h.Add("Authorization", v)
			}

			err := gate.Check(h)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidToken)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGate_Subprotocol(t *testing.T) {
	gate := NewSubprotocol("secret")

	tests := []struct {
		name    string
		value   string
		set     bool
		wantErr bool
	}{
		{"exact match", "auth-secret", true, false},
		{"missing header", "", false, true},
		{"empty value", "", true, true},
		{"wrong token", "auth-wrong", true, true},
		{"missing prefix", "secret", true, true},
		{"authorization format", "Token secret", true, true},
		{"extra protocol", "auth-secret, chat", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.set {
				h.Set("Sec-WebSocket-Protocol", tt.value)
			}

			err := gate.Check(h)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidToken)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGate_HeaderIsCanonical(t *testing.T) {
	assert.Equal(t, "Sec-Websocket-Protocol", NewSubprotocol("x").Header())
	assert.Equal(t, "Authorization", NewAuthorization("x").Header())
	assert.Equal(t, "X-Relay-Token", New("x-relay-token", "v").Header())
}

func TestGate_HeaderLookupIsCaseInsensitive(t *testing.T) {
	gate := NewSubprotocol("secret")

	req, _ := http.NewRequest(http.MethodGet, "/state/push", nil)
	req.Header["Sec-Websocket-Protocol"] = []string{"auth-secret"}

	assert.NoError(t, gate.Check(req.Header))
}
