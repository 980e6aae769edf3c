package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hostel-pg/models"
	"hostel-pg/utils"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is who is making the request, resolved from the store on every
// request.
type Session struct {
	UID    string        `json:"uid"`
	Email  string        `json:"email"`
	Role   models.Role   `json:"role"`
	Status models.Status `json:"status"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// SessionLoader looks a tenant up by uid.
type SessionLoader interface {
	LoadSession(ctx context.Context, uid string) (*models.Tenant, error)
}

// TokenValidator verifies a bearer token.
type TokenValidator interface {
	Validate(token string) (*utils.Claims, error)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"error":     msg,
		"timestamp": time.Now(),
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// JWTAuth validates the bearer token, then re-reads role and status for the
// token's uid. Any failure is a 401.
func JWTAuth(tokens TokenValidator, loader SessionLoader, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			claims, err := tokens.Validate(raw)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			tenant, err := loader.LoadSession(r.Context(), claims.UID)
			if err != nil {
				log.Debug().Err(err).Str("uid", claims.UID).Msg("session lookup failed")
				writeError(w, http.StatusUnauthorized, "Session no longer valid")
				return
			}

			session := &Session{UID: tenant.UID, Email: tenant.Email, Role: tenant.Role, Status: tenant.Status}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole lets the request through only for the given roles; others get
// a 403.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFrom(r.Context())
			if session == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Not authorized for this area")
		})
	}
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func SessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}
