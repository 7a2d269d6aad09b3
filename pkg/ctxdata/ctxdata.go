package ctxdata

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}
type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  uuid.UUID
	Role    string
	TokenID string
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func GetTraceID(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(traceIDKey{}).(string)
	return traceID, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	p, ok := GetPrincipal(ctx)
	return p.UserID, ok
}

func GetUserRole(ctx context.Context) (string, bool) {
	p, ok := GetPrincipal(ctx)
	return p.Role, ok
}
