// Package identity extracts the authenticated user from incoming requests.
// Authentication itself happens upstream (the auth gateway); this service
// only consumes the identity it forwards.
package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Header carries the authenticated user id, set by the auth gateway.
const Header = "X-User-ID"

type ctxKey struct{}

// Middleware puts the request's user id (if any) into the context. Requests
// without a valid id still pass through: handlers decide whether identity
// is required.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(Header)
		if raw != "" {
			if id, err := uuid.FromString(raw); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// UserID returns the current user id or ErrNotAuthenticated.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return id, nil
}
