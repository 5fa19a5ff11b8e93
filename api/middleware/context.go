package middleware

import "context"

type contextKey string

const (
	ctxMemberID    contextKey = "member_id"
	ctxMemberEmail contextKey = "member_email"
	ctxMemberName  contextKey = "member_name"
	ctxMemberUSN   contextKey = "member_usn"
	ctxRole        contextKey = "actor_role"
)

func MemberIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMemberID).(string); ok {
		return v
	}
	return ""
}

func MemberEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMemberEmail).(string); ok {
		return v
	}
	return ""
}

func MemberNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMemberName).(string); ok {
		return v
	}
	return ""
}

func MemberUSNFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxMemberUSN).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithMember seeds the context with the authenticated member's identity.
// Handlers outside the middleware chain (tests, workers) use it directly.
func WithMember(ctx context.Context, memberID, email, name, usn, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxMemberID, memberID)
	ctx = context.WithValue(ctx, ctxMemberEmail, email)
	ctx = context.WithValue(ctx, ctxMemberName, name)
	if usn != "" {
		ctx = context.WithValue(ctx, ctxMemberUSN, usn)
	}
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}
