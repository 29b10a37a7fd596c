// Package session carries the shopper's identity through a request context.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

type shopperKey struct{}

// WithShopper attaches the shopper's bearer token. An empty token leaves ctx
// unchanged, so "no session" and "anonymous" are the same thing.
func WithShopper(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, shopperKey{}, token)
}

// ShopperToken returns the bearer token of the signed-in shopper, if any.
func ShopperToken(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(shopperKey{}).(string)
	return tok, ok && tok != ""
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Middleware copies the bearer token of each request into its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := BearerToken(r); tok != "" {
			r = r.WithContext(WithShopper(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}

// Scope returns a stable, non-reversible identifier for the shopper on ctx,
// suitable for keying per-shopper cache entries. ok is false for anonymous
// requests.
func Scope(ctx context.Context) (scope string, ok bool) {
	tok, ok := ShopperToken(ctx)
	if !ok {
		return "", false
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:16]), true
}
