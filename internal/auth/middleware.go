package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ctxKey string

const principalKey ctxKey = "auth_principal"

var tracer = otel.Tracer("github.com/swasthatech/hospital-service/auth")

type MetricsRecorder interface {
	RecordAuthFailure(ctx context.Context, reason string)
}

type PermissionMetricsRecorder interface {
	RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool)
}

func writeError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	})
}

// bearerToken extracts the token from an Authorization header. On failure it
// returns the reason recorded in the auth failure metric.
func bearerToken(header string) (token, reason string) {
	if header == "" {
		return "", "missing_authorization"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid_header_format"
	}
	return token, ""
}

func Middleware(ver *Verifier) func(http.Handler) http.Handler {
	return MiddlewareWithMetrics(ver, nil)
}

// MiddlewareWithMetrics authenticates the bearer token and stores the
// Principal in the request context. Every rejection is a 401.
func MiddlewareWithMetrics(ver *Verifier, metrics MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "auth.Middleware")
			defer span.End()

			reject := func(reason, message string) {
				span.SetStatus(codes.Error, message)
				span.SetAttributes(attribute.String("auth.failure", reason))
				if metrics != nil {
					metrics.RecordAuthFailure(ctx, reason)
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", message)
			}

			token, reason := bearerToken(r.Header.Get("Authorization"))
			switch reason {
			case "missing_authorization":
				reject(reason, "missing authorization")
				return
			case "invalid_header_format":
				reject(reason, "invalid authorization header")
				return
			}

			pr, err := ver.ParseAndVerifyToken(token)
			if errors.Is(err, ErrTokenExpired) {
				reject("expired_token", "token expired")
				return
			}
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("token rejected")
				reject("invalid_token", "invalid token")
				return
			}

			span.SetAttributes(
				attribute.Int64("user.id", pr.UserID),
				attribute.StringSlice("user.roles", pr.Roles),
				attribute.Int64("user.profile_id", pr.ProfileID),
			)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, principalKey, pr)))
		})
	}
}

func RequirePermission(per string, perms Permissions) func(http.Handler) http.Handler {
	return RequirePermissionWithMetrics(per, perms, nil)
}

// RequirePermissionWithMetrics answers 401 without a Principal and 403 when
// none of its roles grants per.
func RequirePermissionWithMetrics(per string, perms Permissions, metrics PermissionMetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := tracer.Start(r.Context(), "auth.RequirePermission")
			defer span.End()
			span.SetAttributes(attribute.String("permission.required", per))

			pr, authenticated := FromContext(ctx)
			allowed := authenticated && HasPermission(pr, per, perms)
			if metrics != nil {
				metrics.RecordPermissionCheck(ctx, per, float64(time.Since(start).Microseconds())/1000, allowed)
			}
			span.SetAttributes(attribute.Bool("permission.allowed", allowed))

			switch {
			case !authenticated:
				span.SetStatus(codes.Error, "unauthenticated")
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthenticated")
			case !allowed:
				log.Warn().
					Int64("user_id", pr.UserID).
					Strs("roles", pr.Roles).
					Str("permission", per).
					Str("path", r.URL.Path).
					Msg("permission denied")
				span.SetStatus(codes.Error, "forbidden")
				writeError(w, http.StatusForbidden, "forbidden", "forbidden")
			default:
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func FromContext(ctx context.Context) (*Principal, bool) {
	pr, ok := ctx.Value(principalKey).(*Principal)
	return pr, ok
}

// HasPermission reports whether any of the principal's roles grants permission.
func HasPermission(pr *Principal, permission string, perms Permissions) bool {
	for _, role := range pr.Roles {
		if perms.Grants(role, permission) {
			return true
		}
	}
	return false
}
