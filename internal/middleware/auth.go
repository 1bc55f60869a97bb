package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// MemberKey is the context key for the authenticated member name.
const MemberKey contextKey = "member"

// GetMember extracts the authenticated member from the context.
// Returns empty string if not found.
func GetMember(ctx context.Context) string {
	member, _ := ctx.Value(MemberKey).(string)
	return member
}

// WithMember returns a context carrying member as the authenticated caller.
func WithMember(ctx context.Context, member string) context.Context {
	return context.WithValue(ctx, MemberKey, member)
}

func authenticate(jwtManager *auth.JWTManager, header string) (string, error) {
	token, err := auth.BearerToken(header)
	if err != nil {
		return "", err
	}
	claims, err := jwtManager.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.Member, nil
}

// RequireAuth returns an interceptor that validates the bearer token on every
// call and puts the member into the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			member, err := authenticate(jwtManager, req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(WithMember(ctx, member), req)
		}
	}
}

// RequireAuthHTTP is RequireAuth for plain HTTP handlers. Reads are let
// through anonymously; writes need a valid token.
func RequireAuthHTTP(jwtManager *auth.JWTManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member, err := authenticate(jwtManager, r.Header.Get("Authorization"))
		switch {
		case err == nil:
			r = r.WithContext(WithMember(r.Context(), member))
		case r.Method != http.MethodGet && r.Method != http.MethodHead && r.Method != http.MethodOptions:
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="splitledger"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
