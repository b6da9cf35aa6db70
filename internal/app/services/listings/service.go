// Package listings implements host-side listing management: the dashboard,
// creation with its location, edits and deletion. Ownership is re-verified on
// every mutation.
package listings

import (
	"context"
	"fmt"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/metrics"
	"github.com/hosthub/hosthub/internal/app/storage"
	"github.com/hosthub/hosthub/pkg/logger"
)

// Service manages a host's listings.
type Service struct {
	users storage.UserStore
	store storage.ListingStore
	log   *logger.Logger
}

// New constructs a listing service.
func New(users storage.UserStore, store storage.ListingStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("listings")
	}
	return &Service{users: users, store: store, log: log}
}

// Input carries the editable listing fields plus its location.
type Input struct {
	Title        string
	Description  string
	WorkHours    int
	DurationDays int
	WorkType     string
	Country      string
	State        string
	City         string
	ZipCode      string
}

func (in Input) validate() error {
	switch {
	case in.Title == "":
		return fmt.Errorf("title is required")
	case in.Description == "":
		return fmt.Errorf("description is required")
	case in.WorkHours <= 0:
		return fmt.Errorf("work hours must be positive")
	case in.DurationDays <= 0:
		return fmt.Errorf("duration days must be positive")
	case in.WorkType == "":
		return fmt.Errorf("work type is required")
	case in.Country == "":
		return fmt.Errorf("country is required")
	case in.City == "":
		return fmt.Errorf("city is required")
	}
	return nil
}

func (in Input) location() listing.Location {
	return listing.Location{
		Country: in.Country,
		State:   in.State,
		City:    in.City,
		ZipCode: in.ZipCode,
	}
}

// Dashboard is the host dashboard read model. ActiveCount covers the
// returned listings; TotalApplications is an independent aggregate across
// all of the host's listings and holds even when Listings is empty.
type Dashboard struct {
	Listings          []listing.Summary `json:"listings"`
	ActiveCount       int               `json:"active_count"`
	TotalApplications int               `json:"total_applications"`
}

// Dashboard loads the host's listings with derived counts.
func (s *Service) Dashboard(ctx context.Context, hostID int64) (Dashboard, error) {
	rows, err := s.store.ListForHost(ctx, hostID)
	if err != nil {
		return Dashboard{}, err
	}

	active := 0
	for _, row := range rows {
		if row.Status == listing.StatusActive {
			active++
		}
	}

	total, err := s.store.CountHostApplications(ctx, hostID)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{Listings: rows, ActiveCount: active, TotalApplications: total}, nil
}

// Create publishes a new listing. The host profile is provisioned on the
// first listing a host creates; the location and the listing are inserted in
// one transaction. New listings are always active.
func (s *Service) Create(ctx context.Context, hostID int64, in Input) (listing.Listing, error) {
	if err := in.validate(); err != nil {
		return listing.Listing{}, err
	}

	owner, err := s.users.FindUserByID(ctx, hostID)
	if err != nil {
		return listing.Listing{}, err
	}
	if owner == nil || owner.Role != user.RoleHost {
		return listing.Listing{}, fmt.Errorf("user %d is not a host", hostID)
	}

	profile, err := s.users.GetHostProfile(ctx, hostID)
	if err != nil {
		return listing.Listing{}, err
	}
	if profile == nil {
		if err := s.store.EnsureHostProfile(ctx, hostID); err != nil {
			return listing.Listing{}, err
		}
		s.log.WithField("host_id", hostID).Info("host profile provisioned on first listing")
	}

	created, err := s.store.CreateListing(ctx, listing.Listing{
		HostID:       hostID,
		Title:        in.Title,
		Description:  in.Description,
		WorkHours:    in.WorkHours,
		DurationDays: in.DurationDays,
		WorkType:     in.WorkType,
		Status:       listing.StatusActive,
	}, in.location())
	if err != nil {
		return listing.Listing{}, err
	}

	metrics.RecordListingCreated(created.WorkType)
	s.log.WithField("listing_id", created.ID).
		WithField("host_id", hostID).
		Info("listing created")
	return created, nil
}

// Details loads a listing with its application aggregates and applications.
// When ownerHostID is non-nil the lookup is ownership-filtered; a mismatch
// looks exactly like a nonexistent listing.
func (s *Service) Details(ctx context.Context, listingID int64, ownerHostID *int64) (*listing.Details, []application.Summary, error) {
	details, err := s.store.GetDetails(ctx, listingID, ownerHostID)
	if err != nil {
		return nil, nil, err
	}
	if details == nil {
		return nil, nil, nil
	}

	apps, err := s.store.ListApplications(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	return details, apps, nil
}

// Update rewrites a listing and its location atomically. False when the
// listing does not exist or hostID does not own it.
func (s *Service) Update(ctx context.Context, listingID, hostID int64, in Input) (bool, error) {
	if err := in.validate(); err != nil {
		return false, err
	}

	ok, err := s.store.UpdateListing(ctx, listing.Listing{
		ID:           listingID,
		HostID:       hostID,
		Title:        in.Title,
		Description:  in.Description,
		WorkHours:    in.WorkHours,
		DurationDays: in.DurationDays,
		WorkType:     in.WorkType,
	}, in.location())
	if err != nil {
		return false, err
	}
	if ok {
		s.log.WithField("listing_id", listingID).
			WithField("host_id", hostID).
			Info("listing updated")
	}
	return ok, nil
}

// Delete removes a listing together with its location, all-or-nothing.
// False when the listing does not exist or hostID does not own it.
func (s *Service) Delete(ctx context.Context, listingID, hostID int64) (bool, error) {
	ok, err := s.store.DeleteListing(ctx, listingID, hostID)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.WithField("listing_id", listingID).
			WithField("host_id", hostID).
			Info("listing deleted")
	}
	return ok, nil
}
