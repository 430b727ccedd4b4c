package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	godotenv.Load("../.env.test")
	os.Setenv("JWT_SECRET", "testsecret")
	os.Exit(m.Run())
}

func signTestToken(t *testing.T, username string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString(getJWTSecret())
	require.NoError(t, err)
	return signed
}

func echoPrincipal(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value("user").(string)
		if !ok {
			t.Error("principal not found in request context")
			http.Error(w, "no principal", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(user))
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid token passes and attaches the principal", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		token := signTestToken(t, "alice", time.Now().Add(time.Hour))
		req := httptest.NewRequest("GET", "/api/rentals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		req := httptest.NewRequest("GET", "/api/rentals", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		req := httptest.NewRequest("GET", "/api/rentals", nil)
		req.Header.Set("Authorization", "NotBearer")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		token := signTestToken(t, "alice", time.Now().Add(-time.Hour))
		req := httptest.NewRequest("GET", "/api/rentals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("tampered signature", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		token := signTestToken(t, "alice", time.Now().Add(time.Hour))
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		last := parts[2]
		flipped := "A"
		if strings.HasSuffix(last, "A") {
			flipped = "B"
		}
		tampered := parts[0] + "." + parts[1] + "." + last[:len(last)-1] + flipped

		req := httptest.NewRequest("GET", "/api/rentals", nil)
		req.Header.Set("Authorization", "Bearer "+tampered)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token without a subject", func(t *testing.T) {
		handler := RequireAuth(echoPrincipal(t))

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(getJWTSecret())
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/rentals", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
