package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/domain"
	"github.com/tazhibayda/foodshare-service/internal/hub"
	"github.com/tazhibayda/foodshare-service/internal/log"
	"github.com/tazhibayda/foodshare-service/internal/metrics"
	"github.com/tazhibayda/foodshare-service/internal/queue"
	"github.com/tazhibayda/foodshare-service/internal/repo"
	"go.uber.org/zap"
)

// Actor is the authenticated caller, as the auth middleware resolved it.
type Actor struct {
	ID   string
	Name string
	Role string
}

// Service sequences validated requests into store + hub calls. It is the only
// place with cross-cutting policy: role checks, field validation, and the
// accept state machine. Broadcasts happen strictly after the store mutation —
// never while any store lock is held.
type Service struct {
	store  repo.Listings
	hub    *hub.Hub
	events queue.Publisher
	now    func() time.Time
}

func NewService(store repo.Listings, h *hub.Hub, events queue.Publisher) *Service {
	return &Service{
		store:  store,
		hub:    h,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock; tests use it to step past expiry.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Quantity     string `json:"quantity"`
	MobileNumber string `json:"mobileNumber"`
	Locality     string `json:"locality"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func validate(in *CreateInput) *ValidationError {
	fields := map[string]string{}
	req := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"quantity":    in.Quantity,
		"locality":    in.Locality,
		"city":        in.City,
		"state":       in.State,
	}
	for name, v := range req {
		if strings.TrimSpace(v) == "" {
			fields[name] = "required"
		}
	}
	if !digits(in.MobileNumber) || len(in.MobileNumber) != 10 {
		fields["mobileNumber"] = "must be exactly 10 digits"
	}
	if !digits(in.Pincode) || len(in.Pincode) != 6 {
		fields["pincode"] = "must be exactly 6 digits"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates and stores a new listing. Only helpers may donate.
// No event fires here: only accept/expire are broadcast.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*domain.Listing, error) {
	if actor.Role != domain.RoleHelper {
		return nil, ErrForbidden
	}
	if verr := validate(&in); verr != nil {
		return nil, verr
	}
	l := &domain.Listing{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Quantity:     strings.TrimSpace(in.Quantity),
		MobileNumber: in.MobileNumber,
		Locality:     strings.TrimSpace(in.Locality),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		Pincode:      in.Pincode,
		CreatedBy:    actor.ID,
		CreatorName:  actor.Name,
	}
	if err := s.store.Create(ctx, l, s.now()); err != nil {
		return nil, err
	}
	metrics.ListingsCreated.Inc()
	return l, nil
}

// Accept runs the crux of the lifecycle: at most one claimant wins.
//
//  1. load; absent -> ErrNotFound
//  2. wrong role -> ErrForbidden
//  3. already past available -> ErrNotAvailable
//  4. stale -> lazily expire it (event fires if this call did the
//     transition) and report ErrExpired
//  5. atomic accept; losing the race -> ErrNotAvailable, and the winner's
//     path is the one that broadcasts
func (s *Service) Accept(ctx context.Context, actor Actor, id int64) (*domain.Listing, error) {
	l, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if actor.Role != domain.RoleNGO {
		return nil, ErrForbidden
	}
	if l.Status != domain.StatusAvailable {
		return nil, ErrNotAvailable
	}

	now := s.now()
	if l.Expired(now) {
		s.expire(ctx, id)
		return nil, ErrExpired
	}

	updated, err := s.store.Accept(ctx, id, actor.ID, actor.Name, now)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotAvailable):
			return nil, ErrNotAvailable
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	metrics.ListingsAccepted.Inc()
	ev := domain.Event{Type: domain.EventListingAccepted, Listing: *updated}
	s.hub.Broadcast(ev)
	go s.events.Publish(ctx, queue.Exchange, queue.KeyListingAccepted, ev, queue.RequestID(ctx))
	return updated, nil
}

// Expire transitions a stale listing and, when this call performed the
// transition, emits the expiry event exactly once. Shared by the accept path
// and the sweeper.
func (s *Service) Expire(ctx context.Context, id int64) error {
	return s.expire(ctx, id)
}

func (s *Service) expire(ctx context.Context, id int64) error {
	expired, changed, err := s.store.MarkExpired(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return nil // кто-то успел раньше — событие уже улетело
	}
	metrics.ListingsExpired.Inc()
	ev := domain.Event{Type: domain.EventListingExpired, Listing: *expired}
	s.hub.Broadcast(ev)
	go s.events.Publish(ctx, queue.Exchange, queue.KeyListingExpired, ev, queue.RequestID(ctx))
	log.L().Info("listing expired", zap.Int64("id", id))
	return nil
}

// Active lists available, unexpired listings. Staleness is re-checked at
// read time, independent of sweeper timing.
func (s *Service) Active(ctx context.Context, srt domain.Sort) ([]domain.Listing, error) {
	return s.store.ListActive(ctx, s.now(), srt)
}

// Mine lists the helper's own donations, newest first.
func (s *Service) Mine(ctx context.Context, actor Actor) ([]domain.Listing, error) {
	if actor.Role != domain.RoleHelper {
		return nil, ErrForbidden
	}
	return s.store.ListByCreator(ctx, actor.ID)
}

// Claimed lists what the ngo has accepted, most recently accepted first.
func (s *Service) Claimed(ctx context.Context, actor Actor) ([]domain.Listing, error) {
	if actor.Role != domain.RoleNGO {
		return nil, ErrForbidden
	}
	return s.store.ListByAcceptor(ctx, actor.ID)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	l, err := s.store.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return l, err
}
