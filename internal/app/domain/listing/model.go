// Package listing defines work-exchange listings and the locations they are
// tied to.
package listing

import "fmt"

// Status is the lifecycle state of a listing. Only active listings are
// visible to travelers.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates a raw listing status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("unknown listing status %q", raw)
	}
}

// Location is a normalized address owned by exactly one listing. It is
// created with the listing and removed when the listing is deleted.
type Location struct {
	ID      int64  `db:"location_id" json:"location_id"`
	Country string `db:"country" json:"country"`
	State   string `db:"state" json:"state"`
	City    string `db:"city" json:"city"`
	ZipCode string `db:"zip_code" json:"zip_code"`
}

// Listing is a posted work opportunity owned by a host.
type Listing struct {
	ID           int64  `db:"listing_id" json:"listing_id"`
	HostID       int64  `db:"host_id" json:"host_id"`
	LocationID   int64  `db:"location_id" json:"location_id"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description"`
	WorkHours    int    `db:"work_hour" json:"work_hours"`
	DurationDays int    `db:"duration_day" json:"duration_days"`
	WorkType     string `db:"work_type" json:"work_type"`
	Status       Status `db:"status" json:"status"`
}

// Summary is a dashboard row: a listing enriched with its location and the
// number of applications it has received.
type Summary struct {
	Listing
	City             string `db:"city" json:"city"`
	Country          string `db:"country" json:"country"`
	ApplicationCount int    `db:"application_count" json:"application_count"`
}

// Details is the host-facing detail view with derived application
// aggregates. The counts are recomputed from application rows on every read,
// never stored.
type Details struct {
	Listing
	City                 string `db:"city" json:"city"`
	Country              string `db:"country" json:"country"`
	State                string `db:"state" json:"state"`
	ZipCode              string `db:"zip_code" json:"zip_code"`
	TotalApplications    int    `db:"total_applications" json:"total_applications"`
	PendingApplications  int    `db:"pending_applications" json:"pending_applications"`
	AcceptedApplications int    `db:"accepted_applications" json:"accepted_applications"`
}

// SearchResult is the traveler-facing row: a listing enriched with its
// location and the publishing host's name and rating.
type SearchResult struct {
	Listing
	City          string  `db:"city" json:"city"`
	Country       string  `db:"country" json:"country"`
	HostFirstName string  `db:"first_name" json:"host_first_name"`
	HostLastName  string  `db:"last_name" json:"host_last_name"`
	HostRating    float64 `db:"host_rating" json:"host_rating"`
}
