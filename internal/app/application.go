package app

import (
	"github.com/hosthub/hosthub/internal/app/services/applications"
	"github.com/hosthub/hosthub/internal/app/services/identity"
	"github.com/hosthub/hosthub/internal/app/services/listings"
	"github.com/hosthub/hosthub/internal/app/services/search"
	"github.com/hosthub/hosthub/internal/app/storage"
	"github.com/hosthub/hosthub/internal/app/storage/memory"
	"github.com/hosthub/hosthub/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users        storage.UserStore
	Listings     storage.ListingStore
	Applications storage.ApplicationStore
	Search       storage.SearchStore
}

// Options tunes service behaviour that is not persistence-related.
type Options struct {
	// RejectDuplicateApplications refuses a second application from the same
	// traveler to the same listing. Off by default.
	RejectDuplicateApplications bool
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Identity     *identity.Service
	Listings     *listings.Service
	Applications *applications.Service
	Search       *search.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Listings == nil {
		stores.Listings = mem
	}
	if stores.Applications == nil {
		stores.Applications = mem
	}
	if stores.Search == nil {
		stores.Search = mem
	}

	var appOpts []applications.Option
	if opts.RejectDuplicateApplications {
		appOpts = append(appOpts, applications.WithDuplicatePolicy(applications.RejectDuplicates))
	}

	return &Application{
		log:          log,
		Identity:     identity.New(stores.Users, log),
		Listings:     listings.New(stores.Users, stores.Listings, log),
		Applications: applications.New(stores.Users, stores.Listings, stores.Applications, log, appOpts...),
		Search:       search.New(stores.Search, log),
	}, nil
}
