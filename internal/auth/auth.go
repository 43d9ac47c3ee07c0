package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"

	"formrelay/backend/internal/config"
	"formrelay/backend/pkg/models"
)

// DevOwner is the identity assumed for every request when auth is bypassed.
const DevOwner = "dev@localhost"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoEmail      = errors.New("token carries no email claim")
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is the authenticated caller. Forms are owned by Email.
type Identity struct {
	Subject string
	Email   string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// OwnerFromContext returns the caller's email, or "" when unauthenticated.
func OwnerFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Email
}

// Auth verifies bearer access tokens issued by an OpenID Connect provider.
type Auth struct {
	verifier   *oidc.IDTokenVerifier
	logger     Logger
	authBypass bool
}

// New creates a new Auth object using values from the application
// configuration. Outside bypass mode it discovers the provider at the
// configured issuer and prepares a token verifier.
func New(ctx context.Context, cfg *config.Config, logger Logger) (*Auth, error) {
	shouldBypass := cfg.IsDevelopment() && cfg.Auth.DevBypass
	if shouldBypass {
		logger.Info("auth bypass enabled", "owner", DevOwner)
		return &Auth{logger: logger, authBypass: true}, nil
	}

	if cfg.Auth.Issuer == "" {
		return nil, errors.New("auth configuration is incomplete: issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.Auth.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	// Access tokens often carry an API audience rather than a client id.
	verifier := provider.Verifier(&oidc.Config{
		ClientID:          cfg.Auth.Audience,
		SkipClientIDCheck: cfg.Auth.Audience == "",
	})
	return &Auth{verifier: verifier, logger: logger}, nil
}

// Authenticate resolves the identity behind an Authorization header value.
func (a *Auth) Authenticate(ctx context.Context, header string) (Identity, error) {
	if a.authBypass {
		return Identity{Subject: "dev", Email: DevOwner}, nil
	}

	rawToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(rawToken) == "" {
		return Identity{}, ErrMissingToken
	}
	token, err := a.verifier.Verify(ctx, strings.TrimSpace(rawToken))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Subject: token.Subject, Email: strings.ToLower(claims.Email)}, nil
}

// RequireAuth is middleware that rejects requests without a valid bearer
// token and stores the caller's Identity in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if a.logger != nil {
				a.logger.Debug("rejected request", "path", r.URL.Path, "error", err)
			}
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="formrelay"`)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(http.StatusUnauthorized),
		Status: http.StatusUnauthorized,
		Detail: err.Error(),
	})
}
