package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated member through a request.
type AuthContext struct {
	MemberID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// MemberID returns the authenticated member id, or 0 when the request is
// unauthenticated.
func MemberID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.MemberID
}
