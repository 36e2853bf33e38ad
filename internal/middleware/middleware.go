package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"divyashree/internal/auth"
	"divyashree/internal/model"
	"divyashree/internal/permission"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// UserLoader loads the account a token refers to.
type UserLoader interface {
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

// PermissionSource resolves a role's capability set.
type PermissionSource interface {
	SetFor(ctx context.Context, role model.Role) (*permission.Set, error)
}

// CORS adds CORS headers for the storefront origin.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate requires a valid bearer token for an active account. The
// account is reloaded on every request so role changes and deactivation
// take effect before the token expires.
func Authenticate(tokens TokenParser, users UserLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				if model.KindOf(err) == model.KindInternal {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to load user")
				} else {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("authentication rejected")
				}
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// every request through.
func OptionalAuth(tokens TokenParser, users UserLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerToken(r) == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolveUser(r, tokens, users)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("ignoring optional credentials")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, tokens TokenParser, users UserLoader) (*model.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, model.ErrUnauthorised
	}

	claims, err := tokens.Parse(token)
	if err != nil {
		return nil, model.NewDomainError(model.KindUnauthorized, model.ErrCodeUnauthorised, "Invalid or expired token")
	}

	user, err := users.Me(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrUnauthorised
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrAccountDisabled
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireRole admits only users holding one of roles. It must run after
// Authenticate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFrom(r.Context())
			if user == nil {
				writeError(w, model.ErrUnauthorised)
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				writeError(w, model.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission admits only users whose role grants action on resource.
// Superadmins are always admitted.
func RequirePermission(perms PermissionSource, resource permission.Resource, action permission.Action, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFrom(r.Context())
			if user == nil {
				writeError(w, model.ErrUnauthorised)
				return
			}
			if user.Role == model.RoleSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}

			set, err := perms.SetFor(r.Context(), user.Role)
			if err != nil {
				logger.Error().Err(err).Str("role", string(user.Role)).Msg("failed to load permissions")
				writeError(w, err)
				return
			}
			if !set.Allows(resource, action) {
				logger.Warn().
					Str("user_id", user.ID.String()).
					Str("role", string(user.Role)).
					Str("resource", string(resource)).
					Str("action", string(action)).
					Msg("permission denied")
				writeError(w, model.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logging logs HTTP requests with timing information.
func Logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			event := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		})
	}
}

// Recovery recovers from panics and returns a 500 error.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					writeError(w, errors.New("panic"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeError writes the failure envelope. Non-domain errors are reported
// as internal without detail.
func writeError(w http.ResponseWriter, err error) {
	status := model.HTTPStatus(err)
	body := errorBody{Message: "Internal server error", Code: model.ErrCodeInternalError}

	var de *model.DomainError
	if errors.As(err, &de) {
		body.Message, body.Code = de.Message, de.Code
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
