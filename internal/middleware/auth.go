package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-auth-service/internal/model"
)

const bearerPrefix = "Bearer "

type tokenVerifier interface {
	ExtractSubject(tokenString string) (string, error)
	IsValid(tokenString string, expectedSubject string) bool
}

type identityResolver interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type contextKey string

const identityContextKey contextKey = "auth_identity"

type AuthMiddleware struct {
	verifier tokenVerifier
	resolver identityResolver
}

func NewAuthMiddleware(verifier tokenVerifier, resolver identityResolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, resolver: resolver}
}

// Authenticate runs once per request ahead of any authorization stage. It
// only annotates the request context: every failure path falls through to
// the next handler with the request left anonymous, and rejection is owned
// by RequireAuth/RequireRoles downstream.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(header, bearerPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		raw := strings.TrimSpace(header[len(bearerPrefix):])
		subject, err := m.verifier.ExtractSubject(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Idempotence guard: a context that already carries an identity is
		// not re-verified, so stacking this stage twice costs nothing.
		if _, ok := IdentityFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.resolver.FindByUsername(r.Context(), subject)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if m.verifier.IsValid(raw, user.Username) {
			identity := model.Identity{
				Username:    user.Username,
				Role:        user.Role,
				Authorities: user.Role.Authorities(),
			}
			r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth is the authorization stage: it rejects requests whose context
// carries no identity. It must be mounted after Authenticate.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeAuthError(w, "UNAUTHORIZED", "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := map[model.Role]struct{}{}
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, "UNAUTHORIZED", "authentication required")
				return
			}

			if _, allowed := roleSet[identity.Role]; !allowed {
				writeAuthError(w, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(model.Identity)
	return identity, ok
}

// ContextWithIdentity is exposed for tests and for handlers that need to run
// downstream stages with a pre-resolved identity.
func ContextWithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func writeAuthError(w http.ResponseWriter, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	if code == "FORBIDDEN" {
		w.WriteHeader(http.StatusForbidden)
	} else {
		w.WriteHeader(http.StatusUnauthorized)
	}

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
