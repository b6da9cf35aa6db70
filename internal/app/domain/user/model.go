// Package user defines accounts and their role-specific profiles.
package user

import "fmt"

// Role distinguishes hosts, who publish listings, from travelers, who apply
// to them.
type Role string

const (
	RoleHost     Role = "host"
	RoleTraveler Role = "traveler"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleHost:
		return RoleHost, nil
	case RoleTraveler:
		return RoleTraveler, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// User is a registered account. ID, Role and Email are immutable after
// registration apart from Email/name changes through settings.
type User struct {
	ID           int64  `db:"user_id" json:"user_id"`
	Username     string `db:"username" json:"username"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Email        string `db:"email" json:"email"`
	Role         Role   `db:"role_type" json:"role"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// HostProfile carries host-specific attributes, created lazily on the first
// listing a host publishes.
type HostProfile struct {
	UserID            int64   `db:"user_id" json:"user_id"`
	Rating            float64 `db:"rating" json:"rating"`
	PreferredLanguage string  `db:"preferred_language" json:"preferred_language"`
}

// TravelerProfile carries traveler-specific attributes shown to hosts
// alongside applications.
type TravelerProfile struct {
	UserID         int64  `db:"user_id" json:"user_id"`
	LanguageSpoken string `db:"language_spoken" json:"language_spoken"`
	Skills         string `db:"skills" json:"skills"`
	Availability   string `db:"availability" json:"availability"`
}
