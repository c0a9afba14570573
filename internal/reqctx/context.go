// Package reqctx carries per-request correlation values through context.Context so
// service-level logs can be tied back to the HTTP request that caused them.
package reqctx

import "context"

type ctxKey string

const (
	keyRID ctxKey = "krizo_rid"
	keyUID ctxKey = "krizo_uid"
)

// WithRID stores the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithUID stores the authenticated caller.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

// UID returns the authenticated caller if present.
func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}
