package repo

import (
	"context"
	"errors"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/domain"
)

var (
	ErrNotFound     = errors.New("listing not found")
	ErrNotAvailable = errors.New("listing not available")
)

// Listings is the storage contract the orchestrator and the sweeper work
// against. All mutation funnels through it; implementations must make Accept
// and MarkExpired atomic per listing (mutex over the table in Memory,
// conditional updates in Mongo). Callers never see stored records — copies only.
//
// Time is always passed in: the store owns state, the caller owns the clock.
type Listings interface {
	// Create assigns a monotonic id, sets status=available and the
	// created/expires timestamps (expires = now + domain.TTL).
	Create(ctx context.Context, l *domain.Listing, now time.Time) error

	Get(ctx context.Context, id int64) (*domain.Listing, error)

	// ListActive returns available listings with expires_at > now,
	// optionally sorted; ties keep insertion (id) order.
	ListActive(ctx context.Context, now time.Time, s domain.Sort) ([]domain.Listing, error)

	// Accept is the single-winner transition available -> accepted.
	// Exactly one concurrent caller per id succeeds; losers get
	// ErrNotAvailable (ErrNotFound for unknown ids). Expired-but-unswept
	// listings are rejected here too: the condition is
	// status == available && expires_at > now.
	Accept(ctx context.Context, id int64, acceptedBy, acceptorName string, now time.Time) (*domain.Listing, error)

	// MarkExpired transitions available -> expired. Idempotent: the bool
	// reports whether THIS call performed the transition, so the caller
	// that sees true emits the expiry event exactly once.
	MarkExpired(ctx context.Context, id int64) (*domain.Listing, bool, error)

	// DueForExpiry returns available listings with expires_at <= now,
	// for the sweeper.
	DueForExpiry(ctx context.Context, now time.Time) ([]domain.Listing, error)

	ListByCreator(ctx context.Context, userID string) ([]domain.Listing, error)
	ListByAcceptor(ctx context.Context, userID string) ([]domain.Listing, error)
}
