package auth

import "context"

type ctxKey int

const claimsKey ctxKey = iota

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom returns the authenticated claims, or nil outside the JWT
// middleware.
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// SubjectFrom returns the authenticated user id, or "".
func SubjectFrom(ctx context.Context) string {
	if c := ClaimsFrom(ctx); c != nil {
		return c.Sub
	}
	return ""
}
