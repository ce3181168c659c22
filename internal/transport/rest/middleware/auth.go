package middleware

import (
	"auticonnect/internal/model"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	OperatorIDKey     contextKey = "operatorId"
	ProfessionalIDKey contextKey = "professionalId"
)

// TokenValidator is the part of the auth service the middleware needs
type TokenValidator interface {
	ValidateOperatorToken(token string) (*model.OperatorClaims, error)
	ValidateProfessionalToken(token string) (*model.ProfessionalClaims, error)
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	auth TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireOperator validates the chat bridge's JWT from the Authorization header
func (m *AuthMiddleware) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.auth.ValidateOperatorToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorIDKey, claims.OperatorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireStaff accepts either an operator or a professional token
func (m *AuthMiddleware) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		if claims, err := m.auth.ValidateOperatorToken(token); err == nil {
			ctx = context.WithValue(ctx, OperatorIDKey, claims.OperatorID)
		} else if claims, err := m.auth.ValidateProfessionalToken(token); err == nil {
			ctx = context.WithValue(ctx, ProfessionalIDKey, claims.UserID)
		} else {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperatorID extracts operator ID from context
func GetOperatorID(ctx context.Context) string {
	if v := ctx.Value(OperatorIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetProfessionalID extracts professional user ID from context
func GetProfessionalID(ctx context.Context) string {
	if v := ctx.Value(ProfessionalIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
