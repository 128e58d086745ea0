// Package scope carries the caller's organization through context.
//
// The admin API uses it to fence webhook access: a webhook owned by another
// org is reported as not found rather than forbidden.
package scope

import "context"

type orgKey struct{}

// WithOrg returns a context carrying the caller's org id.
func WithOrg(ctx context.Context, orgID string) context.Context {
	if orgID == "" {
		return ctx
	}
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgFromContext extracts the caller's org id, or "" when unscoped.
func OrgFromContext(ctx context.Context) string {
	orgID, _ := ctx.Value(orgKey{}).(string)
	return orgID
}

// Allows reports whether the context's scope may access a resource owned by
// ownerOrg. An unscoped context (no org) allows everything; this is the
// in-process, trusted-caller case.
func Allows(ctx context.Context, ownerOrg string) bool {
	orgID := OrgFromContext(ctx)
	return orgID == "" || orgID == ownerOrg
}
