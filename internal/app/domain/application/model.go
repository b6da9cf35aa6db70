// Package application defines traveler applications to listings and their
// lifecycle.
package application

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an application. New applications always
// start pending; the listing's host moves them to one of the terminal states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// ParseStatus validates a raw application status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusAccepted, StatusRejected, StatusWithdrawn:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown application status %q", raw)
	}
}

// ParseTransition validates a status a host may move an application to.
// Pending is the initial state only and is not a legal transition target.
func ParseTransition(raw string) (Status, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return "", err
	}
	if status == StatusPending {
		return "", fmt.Errorf("applications cannot be moved back to %q", StatusPending)
	}
	return status, nil
}

// Application is a traveler's request to join a listing.
type Application struct {
	ID           int64     `db:"application_id" json:"application_id"`
	ListingID    int64     `db:"listing_id" json:"listing_id"`
	TravelerID   int64     `db:"traveler_id" json:"traveler_id"`
	Introduction string    `db:"introduction" json:"introduction"`
	Status       Status    `db:"status" json:"status"`
	DateApplied  time.Time `db:"date_applied" json:"date_applied"`
	LastUpdated  time.Time `db:"last_updated" json:"last_updated"`
}

// Summary is the host-facing view of an application, joined with the
// applying traveler's name and profile.
type Summary struct {
	Application
	FirstName      string `db:"first_name" json:"first_name"`
	LastName       string `db:"last_name" json:"last_name"`
	LanguageSpoken string `db:"language_spoken" json:"language_spoken"`
	Skills         string `db:"skills" json:"skills"`
}

// TravelerView is the traveler-facing view of their own application, joined
// with the listing it targets.
type TravelerView struct {
	Application
	ListingTitle string `db:"title" json:"listing_title"`
	City         string `db:"city" json:"city"`
	Country      string `db:"country" json:"country"`
}
