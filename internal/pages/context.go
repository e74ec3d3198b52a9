package pages

import "context"

type ownerKey struct{}

// WithOwner returns a context carrying the id of the user acting on pages.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// Owner returns the user id stored by WithOwner, or "".
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
