package goPortal

import "context"

type clientIPContextKey struct{}
type navigatorContextKey struct{}
type contextIDContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx for audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithNavigator overrides the Controller's navigator for calls made with ctx.
// HTTP hosts use it to turn navigation into a redirect on the current
// response.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorContextKey{}, nav)
}

// WithContextID attaches the browsing-context identifier to ctx for audit
// events.
func WithContextID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextIDContextKey{}, id)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func navigatorFromContext(ctx context.Context) (Navigator, bool) {
	if ctx == nil {
		return nil, false
	}

	nav, ok := ctx.Value(navigatorContextKey{}).(Navigator)
	return nav, ok && nav != nil
}

func contextIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(contextIDContextKey{}).(string)
	return id
}
