// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/storage"
)

// Store keeps every table in a mutex-guarded map.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	users        map[int64]user.User
	usersByEmail map[string]int64
	hosts        map[int64]user.HostProfile
	travelers    map[int64]user.TravelerProfile
	locations    map[int64]listing.Location
	listings     map[int64]listing.Listing
	applications map[int64]application.Application
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ListingStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.SearchStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		users:        make(map[int64]user.User),
		usersByEmail: make(map[string]int64),
		hosts:        make(map[int64]user.HostProfile),
		travelers:    make(map[int64]user.TravelerProfile),
		locations:    make(map[int64]listing.Location),
		listings:     make(map[int64]listing.Listing),
		applications: make(map[int64]application.Application),
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[u.Email]; exists {
		return user.User{}, storage.ErrEmailTaken
	}

	u.ID = s.nextIDLocked()
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) FindUserByID(_ context.Context, id int64) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetHostProfile(_ context.Context, userID int64) (*user.HostProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.hosts[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) GetTravelerProfile(_ context.Context, userID int64) (*user.TravelerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.travelers[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) UpdateSettings(_ context.Context, upd storage.SettingsUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[upd.UserID]
	if !ok {
		return false, nil
	}
	if owner, exists := s.usersByEmail[upd.Email]; exists && owner != upd.UserID {
		return false, storage.ErrEmailTaken
	}

	delete(s.usersByEmail, u.Email)
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.Email = upd.Email
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID

	if upd.Host != nil {
		p := s.hosts[u.ID]
		p.UserID = u.ID
		p.PreferredLanguage = upd.Host.PreferredLanguage
		s.hosts[u.ID] = p
	}
	if upd.Traveler != nil {
		p := s.travelers[u.ID]
		p.UserID = u.ID
		p.LanguageSpoken = upd.Traveler.LanguageSpoken
		p.Skills = upd.Traveler.Skills
		p.Availability = upd.Traveler.Availability
		s.travelers[u.ID] = p
	}
	return true, nil
}

// ListingStore implementation -------------------------------------------------

func (s *Store) ListForHost(_ context.Context, hostID int64) ([]listing.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []listing.Summary
	for _, l := range s.listings {
		if l.HostID != hostID {
			continue
		}
		loc := s.locations[l.LocationID]
		result = append(result, listing.Summary{
			Listing:          l,
			City:             loc.City,
			Country:          loc.Country,
			ApplicationCount: s.countApplicationsLocked(l.ID),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) CountHostApplications(_ context.Context, hostID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, a := range s.applications {
		if l, ok := s.listings[a.ListingID]; ok && l.HostID == hostID {
			count++
		}
	}
	return count, nil
}

func (s *Store) EnsureHostProfile(_ context.Context, hostID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hosts[hostID]; !ok {
		s.hosts[hostID] = user.HostProfile{UserID: hostID, Rating: 0.0}
	}
	return nil
}

func (s *Store) CreateListing(_ context.Context, l listing.Listing, loc listing.Location) (listing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc.ID = s.nextIDLocked()
	s.locations[loc.ID] = loc

	l.ID = s.nextIDLocked()
	l.LocationID = loc.ID
	s.listings[l.ID] = l
	return l, nil
}

func (s *Store) GetDetails(_ context.Context, listingID int64, ownerHostID *int64) (*listing.Details, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[listingID]
	if !ok {
		return nil, nil
	}
	if ownerHostID != nil && l.HostID != *ownerHostID {
		return nil, nil
	}

	loc := s.locations[l.LocationID]
	details := listing.Details{
		Listing: l,
		City:    loc.City,
		Country: loc.Country,
		State:   loc.State,
		ZipCode: loc.ZipCode,
	}
	for _, a := range s.applications {
		if a.ListingID != listingID {
			continue
		}
		details.TotalApplications++
		switch a.Status {
		case application.StatusPending:
			details.PendingApplications++
		case application.StatusAccepted:
			details.AcceptedApplications++
		}
	}
	return &details, nil
}

func (s *Store) ListApplications(_ context.Context, listingID int64) ([]application.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.Summary
	for _, a := range s.applications {
		if a.ListingID != listingID {
			continue
		}
		u := s.users[a.TravelerID]
		t := s.travelers[a.TravelerID]
		result = append(result, application.Summary{
			Application:    a,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			LanguageSpoken: t.LanguageSpoken,
			Skills:         t.Skills,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateApplied.Equal(result[j].DateApplied) {
			return result[i].DateApplied.After(result[j].DateApplied)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *Store) UpdateListing(_ context.Context, l listing.Listing, loc listing.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listings[l.ID]
	if !ok || existing.HostID != l.HostID {
		return false, nil
	}

	existing.Title = l.Title
	existing.Description = l.Description
	existing.WorkHours = l.WorkHours
	existing.DurationDays = l.DurationDays
	existing.WorkType = l.WorkType
	s.listings[existing.ID] = existing

	loc.ID = existing.LocationID
	s.locations[loc.ID] = loc
	return true, nil
}

func (s *Store) DeleteListing(_ context.Context, listingID, hostID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[listingID]
	if !ok || l.HostID != hostID {
		return false, nil
	}

	delete(s.listings, listingID)
	delete(s.locations, l.LocationID)
	for id, a := range s.applications {
		if a.ListingID == listingID {
			delete(s.applications, id)
		}
	}
	return true, nil
}

func (s *Store) countApplicationsLocked(listingID int64) int {
	count := 0
	for _, a := range s.applications {
		if a.ListingID == listingID {
			count++
		}
	}
	return count
}

// ApplicationStore implementation ---------------------------------------------

func (s *Store) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app.ID = s.nextIDLocked()
	if app.DateApplied.IsZero() {
		app.DateApplied = time.Now().UTC()
	}
	app.LastUpdated = app.DateApplied
	s.applications[app.ID] = app
	return app, nil
}

func (s *Store) HasApplication(_ context.Context, travelerID, listingID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.applications {
		if a.TravelerID == travelerID && a.ListingID == listingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, applicationID int64, status application.Status, hostID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.applications[applicationID]
	if !ok {
		return false, nil
	}
	l, ok := s.listings[a.ListingID]
	if !ok || l.HostID != hostID {
		return false, nil
	}

	a.Status = status
	a.LastUpdated = time.Now().UTC()
	s.applications[applicationID] = a
	return true, nil
}

func (s *Store) ListTravelerApplications(_ context.Context, travelerID int64) ([]application.TravelerView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []application.TravelerView
	for _, a := range s.applications {
		if a.TravelerID != travelerID {
			continue
		}
		l := s.listings[a.ListingID]
		loc := s.locations[l.LocationID]
		result = append(result, application.TravelerView{
			Application:  a,
			ListingTitle: l.Title,
			City:         loc.City,
			Country:      loc.Country,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateApplied.Equal(result[j].DateApplied) {
			return result[i].DateApplied.After(result[j].DateApplied)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// SearchStore implementation --------------------------------------------------

func (s *Store) SearchListings(_ context.Context, f storage.SearchFilter, limit, offset int) ([]listing.SearchResult, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchingListingsLocked(f)
	total := len(matches)

	if offset >= len(matches) {
		return nil, total, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func (s *Store) RecentListings(_ context.Context, n int) ([]listing.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.matchingListingsLocked(storage.SearchFilter{})
	if n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

func (s *Store) GetListing(_ context.Context, id int64) (*listing.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	row := s.searchRowLocked(l)
	return &row, nil
}

// matchingListingsLocked returns active listings matching the filter, newest
// first, so paginated reads stay stable.
func (s *Store) matchingListingsLocked(f storage.SearchFilter) []listing.SearchResult {
	var matches []listing.SearchResult
	for _, l := range s.listings {
		if l.Status != listing.StatusActive {
			continue
		}
		loc := s.locations[l.LocationID]
		if f.Location != "" &&
			!containsFold(loc.City, f.Location) && !containsFold(loc.Country, f.Location) {
			continue
		}
		if f.WorkType != "" && !containsFold(l.WorkType, f.WorkType) {
			continue
		}
		if f.MaxDurationDays > 0 && l.DurationDays > f.MaxDurationDays {
			continue
		}
		matches = append(matches, s.searchRowLocked(l))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })
	return matches
}

func (s *Store) searchRowLocked(l listing.Listing) listing.SearchResult {
	loc := s.locations[l.LocationID]
	u := s.users[l.HostID]
	h := s.hosts[l.HostID]
	return listing.SearchResult{
		Listing:       l,
		City:          loc.City,
		Country:       loc.Country,
		HostFirstName: u.FirstName,
		HostLastName:  u.LastName,
		HostRating:    h.Rating,
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
