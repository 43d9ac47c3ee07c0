package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formrelay/backend/internal/config"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// MockKeySet satisfies oidc.KeySet to bypass signature verification
type MockKeySet struct{}

func (m *MockKeySet) VerifySignature(ctx context.Context, jwtToken string) ([]byte, error) {
	parts := strings.Split(jwtToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed jwt")
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

const (
	testIssuer   = "https://test-issuer.com"
	testAudience = "api://formrelay"
)

func fakeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]any{"alg": "RS256", "typ": "JWT", "kid": "test-key"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte("fakesignature"))
}

func validClaims(email string) map[string]any {
	return map[string]any{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   "user-1",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Add(-1 * time.Minute).Unix(),
		"email": email,
	}
}

func testAuth() *Auth {
	verifier := oidc.NewVerifier(testIssuer, &MockKeySet{}, &oidc.Config{ClientID: testAudience})
	return &Auth{verifier: verifier, logger: &NoOpLogger{}}
}

func serve(a *Auth, header string, next http.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/f1/webhook-logs", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	a.RequireAuth(next).ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_BearerToken_ExtractsOwner(t *testing.T) {
	token := fakeToken(t, validClaims("Owner@Example.com"))

	rec := serve(testAuth(), "Bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		assert.True(t, ok, "identity should be in context")
		assert.Equal(t, "user-1", id.Subject)
		assert.Equal(t, "owner@example.com", OwnerFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	if rec.Code != http.StatusOK {
		t.Logf("Response Body: %s", rec.Body.String())
	}
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_Rejections(t *testing.T) {
	expired := validClaims("owner@example.com")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongAudience := validClaims("owner@example.com")
	wrongAudience["aud"] = "someone-else"
	wrongIssuer := validClaims("owner@example.com")
	wrongIssuer["iss"] = "https://evil.example.com"
	noEmail := validClaims("")
	delete(noEmail, "email")

	cases := map[string]string{
		"missing header":  "",
		"not bearer":      "Basic dXNlcjpwYXNz",
		"empty bearer":    "Bearer ",
		"malformed token": "Bearer not-a-jwt",
		"expired":         "Bearer " + fakeToken(t, expired),
		"wrong audience":  "Bearer " + fakeToken(t, wrongAudience),
		"wrong issuer":    "Bearer " + fakeToken(t, wrongIssuer),
		"no email claim":  "Bearer " + fakeToken(t, noEmail),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			rec := serve(testAuth(), header, func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestRequireAuth_BypassMode(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	cfg.Auth.DevBypass = true

	a, err := New(context.Background(), cfg, &NoOpLogger{})
	require.NoError(t, err)

	rec := serve(a, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DevOwner, OwnerFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_BypassIgnoredOutsideDevelopment(t *testing.T) {
	cfg := &config.Config{Environment: "production"}
	cfg.Auth.DevBypass = true

	_, err := New(context.Background(), cfg, &NoOpLogger{})
	assert.ErrorContains(t, err, "issuer is required")
}

func TestOwnerFromContext_Empty(t *testing.T) {
	assert.Equal(t, "", OwnerFromContext(context.Background()))
}
