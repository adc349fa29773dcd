package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)

	token, err := ti.Issue(sessionID)
	require.NoError(t, err)

	sid, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, sid)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenIssuer([]byte("other"), time.Hour).Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer([]byte("secret"), time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		claims := &Claims{SessionID: sessionID}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ti.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenMiddleware(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)
	token, err := ti.Issue(sessionID)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.With(ti.Middleware).Get("/player/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"ok", "/player/sessions/" + sessionID, "Bearer " + token, http.StatusOK},
		{"missing header", "/player/sessions/" + sessionID, "", http.StatusUnauthorized},
		{"not bearer", "/player/sessions/" + sessionID, "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/player/sessions/" + sessionID, "Bearer invalid-token", http.StatusUnauthorized},
		{"other session", "/player/sessions/22222222-2222-2222-2222-222222222222", "Bearer " + token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
