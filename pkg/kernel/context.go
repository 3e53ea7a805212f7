package kernel

import "context"

// AuthContext describes the caller of an administrative route.
type AuthContext struct {
	Subject  string `json:"subject"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	IsAPIKey bool   `json:"is_api_key"`
}

// IsValid reports whether the context identifies a caller.
func (ac *AuthContext) IsValid() bool {
	return ac != nil && (ac.IsAPIKey || ac.Subject != "")
}

type ContextKey string

const (
	AuthContextKey ContextKey = "auth_context"
	RequestIDKey   ContextKey = "request_id"
)

// WithAuthContext stores ac in ctx.
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, ac)
}

// AuthFromContext returns the AuthContext stored in ctx, if any.
func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return ac, ok && ac != nil
}
