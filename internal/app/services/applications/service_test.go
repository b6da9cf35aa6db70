package applications

import (
	"context"
	"errors"
	"testing"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/storage/memory"
)

type fixture struct {
	store    *memory.Store
	host     user.User
	traveler user.User
	listing  listing.Listing
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	host, err := store.CreateUser(ctx, user.User{Email: "host@example.com", Role: user.RoleHost})
	if err != nil {
		t.Fatalf("seed host: %v", err)
	}
	traveler, err := store.CreateUser(ctx, user.User{Email: "traveler@example.com", Role: user.RoleTraveler})
	if err != nil {
		t.Fatalf("seed traveler: %v", err)
	}
	l, err := store.CreateListing(ctx, listing.Listing{
		HostID:       host.ID,
		Title:        "Hostel reception",
		Description:  "Night shifts",
		WorkHours:    5,
		DurationDays: 30,
		WorkType:     "reception",
		Status:       listing.StatusActive,
	}, listing.Location{Country: "Spain", City: "Seville"})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return fixture{store: store, host: host, traveler: traveler, listing: l}
}

func TestApply(t *testing.T) {
	f := newFixture(t)
	svc := New(f.store, f.store, f.store, nil)
	ctx := context.Background()

	created, err := svc.Apply(ctx, f.traveler.ID, f.listing.ID, "I love night shifts")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if created.Status != application.StatusPending {
		t.Fatalf("new application should be pending, got %q", created.Status)
	}
	if created.DateApplied.IsZero() {
		t.Fatalf("date applied should be set")
	}
	if !created.LastUpdated.Equal(created.DateApplied) {
		t.Fatalf("last updated should start at date applied, got %v vs %v",
			created.LastUpdated, created.DateApplied)
	}

	if _, err := svc.Apply(ctx, f.traveler.ID, f.listing.ID, ""); err == nil {
		t.Fatalf("expected error for empty introduction")
	}
	if _, err := svc.Apply(ctx, f.host.ID, f.listing.ID, "hi"); err == nil {
		t.Fatalf("hosts must not apply to listings")
	}
	if _, err := svc.Apply(ctx, f.traveler.ID, 9999, "hi"); err == nil {
		t.Fatalf("expected error for unknown listing")
	}
}

func TestApplyInactiveListing(t *testing.T) {
	f := newFixture(t)
	svc := New(f.store, f.store, f.store, nil)
	ctx := context.Background()

	closed, err := f.store.CreateListing(ctx, listing.Listing{
		HostID:   f.host.ID,
		Title:    "Closed",
		Status:   listing.StatusInactive,
		WorkType: "farming",
	}, listing.Location{Country: "Spain", City: "Seville"})
	if err != nil {
		t.Fatalf("seed inactive listing: %v", err)
	}

	if _, err := svc.Apply(ctx, f.traveler.ID, closed.ID, "hi"); err == nil {
		t.Fatalf("expected error for inactive listing")
	}
}

func TestDuplicatePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Default policy allows repeat applications.
	relaxed := New(f.store, f.store, f.store, nil)
	if _, err := relaxed.Apply(ctx, f.traveler.ID, f.listing.ID, "first"); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := relaxed.Apply(ctx, f.traveler.ID, f.listing.ID, "second"); err != nil {
		t.Fatalf("repeat apply under default policy: %v", err)
	}

	strict := New(f.store, f.store, f.store, nil, WithDuplicatePolicy(RejectDuplicates))
	if _, err := strict.Apply(ctx, f.traveler.ID, f.listing.ID, "third"); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	svc := New(f.store, f.store, f.store, nil)
	ctx := context.Background()

	created, err := svc.Apply(ctx, f.traveler.ID, f.listing.ID, "hello")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, "pending", f.host.ID); err == nil {
		t.Fatalf("pending must not be a transition target")
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, "approved", f.host.ID); err == nil {
		t.Fatalf("expected error for unknown status")
	}

	// A host that does not own the listing gets not-found, not an error.
	ok, err := svc.UpdateStatus(ctx, created.ID, "accepted", f.traveler.ID)
	if err != nil {
		t.Fatalf("update as non-owner: %v", err)
	}
	if ok {
		t.Fatalf("non-owner must not move the application")
	}

	ok, err = svc.UpdateStatus(ctx, created.ID, "accepted", f.host.ID)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !ok {
		t.Fatalf("owner update should apply")
	}

	views, err := svc.ListForTraveler(ctx, f.traveler.ID)
	if err != nil {
		t.Fatalf("list for traveler: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 application, got %d", len(views))
	}
	if views[0].Status != application.StatusAccepted {
		t.Fatalf("status not updated, got %q", views[0].Status)
	}
	if views[0].ListingTitle != "Hostel reception" || views[0].City != "Seville" {
		t.Fatalf("expected listing join, got %+v", views[0])
	}
	if views[0].LastUpdated.Before(views[0].DateApplied) {
		t.Fatalf("last updated should move forward on transition")
	}
}
