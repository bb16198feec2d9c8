package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimTenantID = "tenant_id"
	jwtClaimAdminID  = "admin_id"
)

// GetTenantIDFromContext resolves the active tenant for the request. Every
// tenant-scoped query and lock key derives from this value.
func GetTenantIDFromContext(ctx context.Context) (int, error) {
	return intClaim(ctx, jwtClaimTenantID)
}

func GetAdminIDFromContext(ctx context.Context) (int, error) {
	return intClaim(ctx, jwtClaimAdminID)
}

func intClaim(ctx context.Context, name string) (int, error) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("claims not found in context or invalid type")
	}

	raw, ok := claims[name]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", name)
	}

	// JSON numbers decode as float64.
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid type for '%s' claim: expected number, got %T", name, raw)
	}
	if value != float64(int(value)) {
		return 0, fmt.Errorf("'%s' claim is not an integer: %f", name, value)
	}

	id := int(value)
	if id <= 0 {
		return 0, fmt.Errorf("invalid value in '%s' claim: %d", name, id)
	}
	return id, nil
}

// WithClaims injects a claim set directly, for tests.
func WithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
