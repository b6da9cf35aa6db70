package storage

import (
	"context"
	"errors"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
)

// ErrEmailTaken is returned by CreateUser when the email column's uniqueness
// constraint rejects the insert.
var ErrEmailTaken = errors.New("email already registered")

// SettingsUpdate carries a settings save: the mutable user columns plus the
// role profile matching the user's role. Exactly one of Host/Traveler is set.
type SettingsUpdate struct {
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Host      *user.HostProfile
	Traveler  *user.TravelerProfile
}

// SearchFilter restricts a listing search. Zero values mean "no constraint".
type SearchFilter struct {
	// Location matches case-insensitively as a substring of city or country.
	Location string
	// WorkType matches case-insensitively as a substring of the work type.
	WorkType string
	// MaxDurationDays is an inclusive upper bound on duration_day.
	MaxDurationDays int
}

// UserStore persists accounts and role profiles.
type UserStore interface {
	// CreateUser inserts a new account and returns it with the generated id.
	// A duplicate email yields ErrEmailTaken.
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	// FindUserByEmail returns nil with no error when no account matches.
	FindUserByEmail(ctx context.Context, email string) (*user.User, error)
	// FindUserByID returns nil with no error when no account matches.
	FindUserByID(ctx context.Context, id int64) (*user.User, error)
	// GetHostProfile returns nil with no error when the host profile has not
	// been provisioned yet.
	GetHostProfile(ctx context.Context, userID int64) (*user.HostProfile, error)
	// GetTravelerProfile returns nil with no error when absent.
	GetTravelerProfile(ctx context.Context, userID int64) (*user.TravelerProfile, error)
	// UpdateSettings applies the user columns and the role profile in one
	// transaction. Returns false when the user row does not exist.
	UpdateSettings(ctx context.Context, upd SettingsUpdate) (bool, error)
}

// ListingStore persists listings together with their locations. Every
// mutation that touches both rows is transactional: both commit or neither.
type ListingStore interface {
	// ListForHost returns the host's listings enriched with location and a
	// per-listing application count.
	ListForHost(ctx context.Context, hostID int64) ([]listing.Summary, error)
	// CountHostApplications returns the number of applications across all of
	// the host's listings, independent of the per-listing counts.
	CountHostApplications(ctx context.Context, hostID int64) (int, error)
	// EnsureHostProfile provisions a host profile with default rating 0.0 if
	// one does not exist.
	EnsureHostProfile(ctx context.Context, hostID int64) error
	// CreateListing inserts the location and the listing in one transaction
	// and returns the listing with generated ids.
	CreateListing(ctx context.Context, l listing.Listing, loc listing.Location) (listing.Listing, error)
	// GetDetails loads a listing with derived application aggregates. When
	// ownerHostID is non-nil the lookup also filters on host_id; a mismatch
	// and a nonexistent id both return nil with no error.
	GetDetails(ctx context.Context, listingID int64, ownerHostID *int64) (*listing.Details, error)
	// ListApplications returns the listing's applications, newest first,
	// joined with the applying traveler's name and profile.
	ListApplications(ctx context.Context, listingID int64) ([]application.Summary, error)
	// UpdateListing rewrites the listing (predicate includes host_id) and its
	// location in one transaction. Returns false, rolling back the location
	// write, when the ownership predicate matches no rows.
	UpdateListing(ctx context.Context, l listing.Listing, loc listing.Location) (bool, error)
	// DeleteListing removes the listing and its location in one transaction.
	// Returns false when the listing does not exist or is not owned by hostID.
	DeleteListing(ctx context.Context, listingID, hostID int64) (bool, error)
}

// ApplicationStore persists traveler applications.
type ApplicationStore interface {
	// CreateApplication inserts a new application and returns it with the
	// generated id.
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	// HasApplication reports whether the traveler already applied to the
	// listing.
	HasApplication(ctx context.Context, travelerID, listingID int64) (bool, error)
	// UpdateApplicationStatus sets the status and last_updated timestamp,
	// requiring through a join that hostID owns the application's listing.
	// Returns false when no row matches.
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status application.Status, hostID int64) (bool, error)
	// ListTravelerApplications returns the traveler's applications joined
	// with listing title and location, newest first.
	ListTravelerApplications(ctx context.Context, travelerID int64) ([]application.TravelerView, error)
}

// SearchStore serves the public read side over active listings.
type SearchStore interface {
	// SearchListings returns one page of active listings matching the filter
	// plus the total match count before pagination.
	SearchListings(ctx context.Context, f SearchFilter, limit, offset int) ([]listing.SearchResult, int, error)
	// RecentListings returns the n most recently created active listings.
	RecentListings(ctx context.Context, n int) ([]listing.SearchResult, error)
	// GetListing returns the public detail row, nil with no error on miss.
	GetListing(ctx context.Context, id int64) (*listing.SearchResult, error)
}
