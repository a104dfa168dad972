package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"

	// TenantKeyKey is the context key for the tenant routing key
	TenantKeyKey contextKey = "tenant_key"
)

// GetRequestIDFromContext retrieves the request ID from context. Falls back
// to the chi request ID when none was set explicitly.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimiddleware.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetTenantKeyFromContext retrieves the tenant routing key from context
func GetTenantKeyFromContext(ctx context.Context) string {
	if val := ctx.Value(TenantKeyKey); val != nil {
		if key, ok := val.(string); ok {
			return key
		}
	}
	return ""
}

// WithTenantKey adds a tenant routing key to the context
func WithTenantKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, TenantKeyKey, key)
}
