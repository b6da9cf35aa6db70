// Package search serves the public read side: browsing and filtering active
// listings.
package search

import (
	"context"

	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/storage"
	"github.com/hosthub/hosthub/pkg/logger"
)

const (
	defaultPageSize    = 10
	defaultRecentCount = 5
)

// Service answers traveler-facing listing queries.
type Service struct {
	store storage.SearchStore
	log   *logger.Logger
}

// New constructs a search service.
func New(store storage.SearchStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("search")
	}
	return &Service{store: store, log: log}
}

// Page is one page of search results. TotalCount is the size of the full
// filtered set, before pagination.
type Page struct {
	Listings   []listing.SearchResult `json:"listings"`
	TotalCount int                    `json:"total_count"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
}

// Search returns active listings matching the filter. Pages are 1-based; a
// page past the end yields an empty list, not an error.
func (s *Service) Search(ctx context.Context, f storage.SearchFilter, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	rows, total, err := s.store.SearchListings(ctx, f, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{Listings: rows, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

// Recent returns the n most recently created active listings for dashboard
// display.
func (s *Service) Recent(ctx context.Context, n int) ([]listing.SearchResult, error) {
	if n < 1 {
		n = defaultRecentCount
	}
	return s.store.RecentListings(ctx, n)
}

// Listing returns the public detail view, nil when the listing does not
// exist.
func (s *Service) Listing(ctx context.Context, id int64) (*listing.SearchResult, error) {
	return s.store.GetListing(ctx, id)
}
