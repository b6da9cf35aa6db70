// Package applications implements the traveler application workflow:
// submitting an application to an active listing and host-driven status
// transitions.
package applications

import (
	"context"
	"errors"
	"fmt"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/metrics"
	"github.com/hosthub/hosthub/internal/app/storage"
	"github.com/hosthub/hosthub/pkg/logger"
)

// ErrDuplicateApplication reports a repeat application under the
// RejectDuplicates policy.
var ErrDuplicateApplication = errors.New("traveler already applied to this listing")

// DuplicatePolicy decides whether a traveler may apply to the same listing
// more than once.
type DuplicatePolicy int

const (
	// AllowDuplicates performs no duplicate check.
	AllowDuplicates DuplicatePolicy = iota
	// RejectDuplicates refuses a second application to the same listing.
	RejectDuplicates
)

// Service manages applications.
type Service struct {
	users    storage.UserStore
	listings storage.ListingStore
	store    storage.ApplicationStore
	log      *logger.Logger
	policy   DuplicatePolicy
}

// Option configures the service.
type Option func(*Service)

// WithDuplicatePolicy overrides the default AllowDuplicates policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// New constructs an application service.
func New(users storage.UserStore, listings storage.ListingStore, store storage.ApplicationStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	s := &Service{users: users, listings: listings, store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply submits a traveler's application to an active listing. The new
// application is always pending.
func (s *Service) Apply(ctx context.Context, travelerID, listingID int64, introduction string) (application.Application, error) {
	if introduction == "" {
		return application.Application{}, fmt.Errorf("introduction is required")
	}

	traveler, err := s.users.FindUserByID(ctx, travelerID)
	if err != nil {
		return application.Application{}, err
	}
	if traveler == nil || traveler.Role != user.RoleTraveler {
		return application.Application{}, fmt.Errorf("user %d is not a traveler", travelerID)
	}

	details, err := s.listings.GetDetails(ctx, listingID, nil)
	if err != nil {
		return application.Application{}, err
	}
	if details == nil {
		return application.Application{}, fmt.Errorf("listing %d not found", listingID)
	}
	if details.Status != listing.StatusActive {
		return application.Application{}, fmt.Errorf("listing %d is not accepting applications", listingID)
	}

	if s.policy == RejectDuplicates {
		exists, err := s.store.HasApplication(ctx, travelerID, listingID)
		if err != nil {
			return application.Application{}, err
		}
		if exists {
			return application.Application{}, ErrDuplicateApplication
		}
	}

	created, err := s.store.CreateApplication(ctx, application.Application{
		ListingID:    listingID,
		TravelerID:   travelerID,
		Introduction: introduction,
		Status:       application.StatusPending,
	})
	if err != nil {
		return application.Application{}, err
	}

	metrics.RecordApplicationSubmitted()
	s.log.WithField("application_id", created.ID).
		WithField("listing_id", listingID).
		WithField("traveler_id", travelerID).
		Info("application submitted")
	return created, nil
}

// UpdateStatus moves an application to a new status on behalf of a host. The
// status is validated against the closed transition set, and the store
// enforces through the listing join that hostID owns the listing. False when
// the application does not exist or the host does not own it.
func (s *Service) UpdateStatus(ctx context.Context, applicationID int64, rawStatus string, hostID int64) (bool, error) {
	status, err := application.ParseTransition(rawStatus)
	if err != nil {
		return false, err
	}

	ok, err := s.store.UpdateApplicationStatus(ctx, applicationID, status, hostID)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.RecordApplicationTransition(string(status))
		s.log.WithField("application_id", applicationID).
			WithField("host_id", hostID).
			Infof("application moved to %s", status)
	}
	return ok, nil
}

// ListForTraveler returns the traveler's applications, newest first, joined
// with the listing they target.
func (s *Service) ListForTraveler(ctx context.Context, travelerID int64) ([]application.TravelerView, error) {
	return s.store.ListTravelerApplications(ctx, travelerID)
}
