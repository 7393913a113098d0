package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/domain"
	"github.com/tazhibayda/foodshare-service/internal/hub"
	"github.com/tazhibayda/foodshare-service/internal/listing"
	"github.com/tazhibayda/foodshare-service/internal/queue"
	"github.com/tazhibayda/foodshare-service/internal/repo"
)

var (
	helper = listing.Actor{ID: "h1", Name: "Helper One", Role: domain.RoleHelper}
	ngo1   = listing.Actor{ID: "n1", Name: "NGO One", Role: domain.RoleNGO}
	ngo2   = listing.Actor{ID: "n2", Name: "NGO Two", Role: domain.RoleNGO}
)

// fakeClock is a settable clock shared by service and tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newEnv(t *testing.T) (*listing.Service, *hub.Hub, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	h := hub.New()
	t.Cleanup(h.Close)
	svc := listing.NewService(repo.NewMemory(), h, queue.NewNoop()).WithNow(clk.Now)
	return svc, h, clk
}

func validInput() listing.CreateInput {
	return listing.CreateInput{
		Title: "Fresh Vegetables", Description: "from the market", Quantity: "5 kg",
		MobileNumber: "9876543210", Locality: "MG Road", City: "Bengaluru",
		State: "Karnataka", Pincode: "560001",
	}
}

func drain(s *hub.Subscriber) []domain.Event {
	var out []domain.Event
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestCreate_SetsOwnerAndNoBroadcast(t *testing.T) {
	svc, h, clk := newEnv(t)
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	l, err := svc.Create(context.Background(), helper, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.CreatedBy != helper.ID || l.CreatorName != helper.Name {
		t.Fatalf("owner fields: %+v", l)
	}
	if !l.ExpiresAt.Equal(clk.Now().Add(domain.TTL)) {
		t.Fatalf("expiresAt = %v", l.ExpiresAt)
	}
	if evs := drain(sub); len(evs) != 0 {
		t.Fatalf("create must not broadcast, got %+v", evs)
	}
}

func TestCreate_ValidationNamesOffendingFields(t *testing.T) {
	svc, _, _ := newEnv(t)

	in := validInput()
	in.MobileNumber = "123456789" // 9 digits
	in.Pincode = "12345"          // 5 digits
	in.Title = "  "

	_, err := svc.Create(context.Background(), helper, in)
	var verr *listing.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, f := range []string{"mobileNumber", "pincode", "title"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("missing field %q in %v", f, verr.Fields)
		}
	}

	// ничего не создано
	ls, _ := svc.Active(context.Background(), domain.Sort{})
	if len(ls) != 0 {
		t.Fatalf("listing created despite validation error: %+v", ls)
	}
}

func TestCreate_NGOForbidden(t *testing.T) {
	svc, _, _ := newEnv(t)
	if _, err := svc.Create(context.Background(), ngo1, validInput()); !errors.Is(err, listing.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestAccept_HappyPathBroadcastsOnce(t *testing.T) {
	svc, h, _ := newEnv(t)
	l, err := svc.Create(context.Background(), helper, validInput())
	if err != nil {
		t.Fatal(err)
	}

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	got, err := svc.Accept(context.Background(), ngo1, l.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != domain.StatusAccepted || got.AcceptedBy != ngo1.ID || got.AcceptorName != ngo1.Name {
		t.Fatalf("accepted record: %+v", got)
	}

	evs := drain(sub)
	if len(evs) != 1 || evs[0].Type != domain.EventListingAccepted || evs[0].Listing.ID != l.ID {
		t.Fatalf("events = %+v, want one listing_accepted", evs)
	}
	if evs[0].Listing.AcceptedBy != ngo1.ID {
		t.Fatalf("broadcast must carry the post-transition record: %+v", evs[0].Listing)
	}
}

func TestAccept_RoleAndNotFound(t *testing.T) {
	svc, _, _ := newEnv(t)
	l, _ := svc.Create(context.Background(), helper, validInput())

	if _, err := svc.Accept(context.Background(), helper, l.ID); !errors.Is(err, listing.ErrForbidden) {
		t.Fatalf("helper accept: %v, want ErrForbidden", err)
	}
	if _, err := svc.Accept(context.Background(), ngo1, 404); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("unknown id: %v, want ErrNotFound", err)
	}
}

func TestAccept_SecondCallerConflicts(t *testing.T) {
	svc, _, _ := newEnv(t)
	l, _ := svc.Create(context.Background(), helper, validInput())

	if _, err := svc.Accept(context.Background(), ngo1, l.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Accept(context.Background(), ngo2, l.ID); !errors.Is(err, listing.ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}
}

func TestAccept_ConcurrentRace_OneWinnerOneBroadcast(t *testing.T) {
	svc, h, _ := newEnv(t)
	l, _ := svc.Create(context.Background(), helper, validInput())

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		conflict int
	)
	for i := 0; i < n; i++ {
		actor := ngo1
		if i%2 == 1 {
			actor = ngo2
		}
		wg.Add(1)
		go func(a listing.Actor) {
			defer wg.Done()
			got, err := svc.Accept(context.Background(), a, l.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, got.AcceptedBy)
			case errors.Is(err, listing.ErrNotAvailable):
				conflict++
			default:
				t.Errorf("unexpected: %v", err)
			}
		}(actor)
	}
	wg.Wait()

	if len(winners) != 1 || conflict != n-1 {
		t.Fatalf("winners=%v conflicts=%d", winners, conflict)
	}
	evs := drain(sub)
	if len(evs) != 1 || evs[0].Type != domain.EventListingAccepted {
		t.Fatalf("want exactly one listing_accepted, got %+v", evs)
	}
	if evs[0].Listing.AcceptedBy != winners[0] {
		t.Fatalf("broadcast acceptedBy=%s, winner=%s", evs[0].Listing.AcceptedBy, winners[0])
	}
}

func TestAccept_LazyExpiry_SingleEvent(t *testing.T) {
	svc, h, clk := newEnv(t)
	l, _ := svc.Create(context.Background(), helper, validInput())

	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	// сразу видно в активных
	ls, _ := svc.Active(context.Background(), domain.Sort{})
	if len(ls) != 1 {
		t.Fatalf("active = %d", len(ls))
	}

	clk.Advance(domain.TTL) // now == expiresAt -> протухло

	ls, _ = svc.Active(context.Background(), domain.Sort{})
	if len(ls) != 0 {
		t.Fatalf("expired listing still visible: %+v", ls)
	}

	if _, err := svc.Accept(context.Background(), ngo1, l.ID); !errors.Is(err, listing.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	// повторная попытка: статус уже expired -> conflict, без второго события
	if _, err := svc.Accept(context.Background(), ngo2, l.ID); !errors.Is(err, listing.ErrNotAvailable) {
		t.Fatalf("err = %v, want ErrNotAvailable", err)
	}

	evs := drain(sub)
	if len(evs) != 1 || evs[0].Type != domain.EventListingExpired {
		t.Fatalf("want exactly one listing_expired, got %+v", evs)
	}
	if evs[0].Listing.Status != domain.StatusExpired {
		t.Fatalf("event must carry post-transition record: %+v", evs[0].Listing)
	}

	got, err := svc.Get(context.Background(), l.ID)
	if err != nil || got.Status != domain.StatusExpired {
		t.Fatalf("terminal state: %+v err=%v", got, err)
	}
}

func TestHistoryViews_RoleChecks(t *testing.T) {
	svc, _, _ := newEnv(t)
	l, _ := svc.Create(context.Background(), helper, validInput())
	if _, err := svc.Accept(context.Background(), ngo1, l.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Mine(context.Background(), ngo1); !errors.Is(err, listing.ErrForbidden) {
		t.Fatalf("ngo reading my-donations: %v", err)
	}
	if _, err := svc.Claimed(context.Background(), helper); !errors.Is(err, listing.ErrForbidden) {
		t.Fatalf("helper reading accepted: %v", err)
	}

	mine, err := svc.Mine(context.Background(), helper)
	if err != nil || len(mine) != 1 {
		t.Fatalf("mine: %v %+v", err, mine)
	}
	claimed, err := svc.Claimed(context.Background(), ngo1)
	if err != nil || len(claimed) != 1 || claimed[0].AcceptedBy != ngo1.ID {
		t.Fatalf("claimed: %v %+v", err, claimed)
	}
}
