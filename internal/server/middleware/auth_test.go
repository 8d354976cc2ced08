package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClaims implements ClientIDGetter for tests.
type stubClaims struct {
	clientID uuid.UUID
}

func (c stubClaims) GetClientID() uuid.UUID { return c.clientID }

// stubValidator implements TokenValidator. It accepts exactly one token
// string and returns a fixed client ID.
type stubValidator struct {
	validToken string
	clientID   uuid.UUID
	calls      int
}

func (v *stubValidator) ValidateToken(tokenString string) (ClientIDGetter, error) {
	v.calls++
	if tokenString != v.validToken {
		return nil, errors.New("invalid token")
	}
	return stubClaims{clientID: v.clientID}, nil
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	clientID := uuid.New()
	validator := &stubValidator{validToken: "good-token", clientID: clientID}

	var gotID uuid.UUID
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetClientID(r)
		require.NoError(t, err)
		gotID = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, clientID, gotID, "client ID from the token should reach the handler")
	assert.Equal(t, 1, validator.calls)
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	validator := &stubValidator{validToken: "good-token", clientID: uuid.New()}
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, prefix := range []string{"bearer", "BEARER", "BeArEr"} {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", prefix+" good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "prefix %q should be accepted", prefix)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "no bearer prefix", header: "good-token"},
		{name: "wrong scheme", header: "Basic good-token"},
		{name: "empty token", header: "Bearer "},
		{name: "extra parts", header: "Bearer good token"},
		{name: "invalid token", header: "Bearer bad-token"},
	}

	validator := &stubValidator{validToken: "good-token", clientID: uuid.New()}
	called := false
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called, "handler must not run for rejected requests")
		})
	}
}

func TestGetClientID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, err := GetClientID(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID not found")
}

func TestGetClientID_FromContext(t *testing.T) {
	clientID := uuid.New()
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), ClientIDKey(), clientID))

	got, err := GetClientID(req)
	require.NoError(t, err)
	assert.Equal(t, clientID, got)
}
