package backend

import "context"

type sessionKey struct{}

// WithSession attaches a session secret to the context so drivers can
// authenticate the calls made with it.
func WithSession(ctx context.Context, secret string) context.Context {
	if ctx == nil || secret == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, secret)
}

// SessionFromContext returns the session secret stored on the context.
func SessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if secret, ok := ctx.Value(sessionKey{}).(string); ok {
		return secret
	}
	return ""
}
