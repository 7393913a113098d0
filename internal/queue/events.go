package queue

import "context"

// Listing lifecycle events go to one topic exchange; sibling services
// (mail/push notifiers) bind with listing.* keys.
const (
	Exchange           = "listings.events"
	KeyListingAccepted = "listing.accepted"
	KeyListingExpired  = "listing.expired"
)

type reqIDKey struct{}

// WithRequestID stashes the request id for publishers downstream of the
// orchestrator, so queue messages stay correlated with the HTTP request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reqIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(reqIDKey{}).(string); ok {
		return v
	}
	return ""
}
