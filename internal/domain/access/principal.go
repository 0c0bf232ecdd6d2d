package access

import "context"

// Principal is the authenticated actor of a core call.
type Principal struct {
	UserID     int64
	EmployeeID int64
	Role       Role
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored on ctx.
func PrincipalFrom(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.EmployeeID == 0 || !p.Role.Valid() {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
