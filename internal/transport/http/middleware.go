package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/actionculture/heritage/internal/api"
	"github.com/actionculture/heritage/internal/domain"
	"github.com/actionculture/heritage/internal/service"
)

// userClaims holds the authenticated user's information from the JWT.
type userClaims struct {
	UserID      uuid.UUID
	Email       string
	Role        string
	Permissions []string
}

// authMiddleware validates JWT tokens and sets user claims in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeJSON(w, http.StatusUnauthorized, api.Error{
				Error: "missing authorization header",
				Code:  api.CodeUnauthorized,
			})
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			s.writeJSON(w, http.StatusUnauthorized, api.Error{
				Error: "invalid authorization header format",
				Code:  api.CodeUnauthorized,
			})
			return
		}

		claims, err := s.authService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, api.Error{
				Error: "invalid or expired token",
				Code:  api.CodeUnauthorized,
			})
			return
		}

		ctx := setUserClaims(r.Context(), &userClaims{
			UserID:      claims.UserID,
			Email:       claims.Email,
			Role:        claims.Role,
			Permissions: claims.Permissions,
		})
		ctx = service.WithActor(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission returns middleware that checks for a specific permission.
func (s *Server) requirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := getUserClaims(r.Context())
			if claims == nil {
				s.writeError(w, domain.ErrUnauthorized)
				return
			}

			if !domain.HasPermission(claims.Permissions, resource, action) {
				s.writeJSON(w, http.StatusForbidden, api.Error{
					Error: "you don't have permission to perform this action",
					Code:  api.CodeForbidden,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// RealIP middleware has already folded X-Forwarded-For and X-Real-IP into RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
