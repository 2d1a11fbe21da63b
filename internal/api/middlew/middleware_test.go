package middlew

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/service"
)

const testSecret = "middleware-secret"

func testChain(t *testing.T, final http.Handler, admin bool) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	auth := service.NewAuthService(testSecret, log)

	h := final
	if admin {
		h = RequireAdmin(h)
	}
	return WithLogger(log)(RequireAuth(auth)(h))
}

func signToken(t *testing.T, customerID uuid.UUID, role string) string {
	t.Helper()
	claims := models.JWTClaims{
		CustomerID: customerID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestRequireAuth_PutsCustomerInContext(t *testing.T) {
	customerID := uuid.New()
	var got uuid.UUID

	h := testChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetCustomerID(r.Context())
		w.WriteHeader(http.StatusOK)
	}), false)

	token := signToken(t, customerID, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, customerID, got)
}

func TestRequireAuth_Rejects(t *testing.T) {
	h := testChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}), false)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireAdmin(t *testing.T) {
	h := testChain(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), true)

	tests := []struct {
		role       string
		wantStatus int
	}{
		{models.RoleAdmin, http.StatusNoContent},
		{"", http.StatusForbidden},
		{"operator", http.StatusForbidden},
	}

	for _, tt := range tests {
		token := signToken(t, uuid.New(), tt.role)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/restoration/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.wantStatus, rec.Code, tt.role)
	}
}

func TestGetLogger_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, slog.Default(), GetLogger(req.Context()))
}
