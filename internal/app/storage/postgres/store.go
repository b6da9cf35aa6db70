// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/storage"
)

// Store implements the storage interfaces over a shared connection pool.
// Mutations that touch both a listing and its location run inside a single
// transaction so the rows can never diverge.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ListingStore = (*Store)(nil)
var _ storage.ApplicationStore = (*Store)(nil)
var _ storage.SearchStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, first_name, last_name, email, password_hash, role_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id
	`, u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, storage.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT user_id, username, first_name, last_name, email, password_hash, role_type
		FROM users
		WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT user_id, username, first_name, last_name, email, password_hash, role_type
		FROM users
		WHERE user_id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetHostProfile(ctx context.Context, userID int64) (*user.HostProfile, error) {
	var p user.HostProfile
	err := s.db.GetContext(ctx, &p, `
		SELECT user_id, rating, COALESCE(preferred_language, '') AS preferred_language
		FROM hosts
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetTravelerProfile(ctx context.Context, userID int64) (*user.TravelerProfile, error) {
	var p user.TravelerProfile
	err := s.db.GetContext(ctx, &p, `
		SELECT user_id,
		       COALESCE(language_spoken, '') AS language_spoken,
		       COALESCE(skills, '') AS skills,
		       COALESCE(availability, '') AS availability
		FROM travelers
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateSettings(ctx context.Context, upd storage.SettingsUpdate) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4
		WHERE user_id = $1
	`, upd.UserID, upd.FirstName, upd.LastName, upd.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return false, storage.ErrEmailTaken
		}
		return false, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return false, nil
	}

	if upd.Host != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hosts (user_id, rating, preferred_language)
			VALUES ($1, 0.0, NULLIF($2, ''))
			ON CONFLICT (user_id) DO UPDATE SET preferred_language = NULLIF($2, '')
		`, upd.UserID, upd.Host.PreferredLanguage)
		if err != nil {
			return false, err
		}
	}
	if upd.Traveler != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO travelers (user_id, language_spoken, skills, availability)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
			ON CONFLICT (user_id) DO UPDATE
			SET language_spoken = NULLIF($2, ''), skills = NULLIF($3, ''), availability = NULLIF($4, '')
		`, upd.UserID, upd.Traveler.LanguageSpoken, upd.Traveler.Skills, upd.Traveler.Availability)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// --- ListingStore -----------------------------------------------------------

func (s *Store) ListForHost(ctx context.Context, hostID int64) ([]listing.Summary, error) {
	var result []listing.Summary
	err := s.db.SelectContext(ctx, &result, `
		SELECT l.listing_id, l.host_id, l.location_id, l.title, l.description,
		       l.work_hour, l.duration_day, l.work_type, l.status,
		       loc.city, loc.country,
		       (SELECT COUNT(*) FROM applications a WHERE a.listing_id = l.listing_id) AS application_count
		FROM listings l
		JOIN locations loc ON loc.location_id = l.location_id
		WHERE l.host_id = $1
		ORDER BY l.listing_id
	`, hostID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CountHostApplications(ctx context.Context, hostID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM applications a
		JOIN listings l ON l.listing_id = a.listing_id
		WHERE l.host_id = $1
	`, hostID)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) EnsureHostProfile(ctx context.Context, hostID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hosts (user_id, rating)
		VALUES ($1, 0.0)
		ON CONFLICT (user_id) DO NOTHING
	`, hostID)
	return err
}

func (s *Store) CreateListing(ctx context.Context, l listing.Listing, loc listing.Location) (listing.Listing, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return listing.Listing{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO locations (country, state, city, zip_code)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''))
		RETURNING location_id
	`, loc.Country, loc.State, loc.City, loc.ZipCode).Scan(&l.LocationID)
	if err != nil {
		return listing.Listing{}, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO listings (host_id, location_id, title, description, work_hour, duration_day, work_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING listing_id
	`, l.HostID, l.LocationID, l.Title, l.Description, l.WorkHours, l.DurationDays, l.WorkType, l.Status).Scan(&l.ID)
	if err != nil {
		return listing.Listing{}, err
	}

	if err := tx.Commit(); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

func (s *Store) GetDetails(ctx context.Context, listingID int64, ownerHostID *int64) (*listing.Details, error) {
	query := `
		SELECT l.listing_id, l.host_id, l.location_id, l.title, l.description,
		       l.work_hour, l.duration_day, l.work_type, l.status,
		       loc.city, loc.country,
		       COALESCE(loc.state, '') AS state, COALESCE(loc.zip_code, '') AS zip_code,
		       COUNT(a.application_id) AS total_applications,
		       COALESCE(SUM(CASE WHEN a.status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_applications,
		       COALESCE(SUM(CASE WHEN a.status = 'accepted' THEN 1 ELSE 0 END), 0) AS accepted_applications
		FROM listings l
		JOIN locations loc ON loc.location_id = l.location_id
		LEFT JOIN applications a ON a.listing_id = l.listing_id
		WHERE l.listing_id = $1
	`
	args := []any{listingID}
	if ownerHostID != nil {
		query += ` AND l.host_id = $2`
		args = append(args, *ownerHostID)
	}
	query += `
		GROUP BY l.listing_id, loc.location_id
	`

	var details listing.Details
	err := s.db.GetContext(ctx, &details, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (s *Store) ListApplications(ctx context.Context, listingID int64) ([]application.Summary, error) {
	var result []application.Summary
	err := s.db.SelectContext(ctx, &result, `
		SELECT a.application_id, a.listing_id, a.traveler_id, a.introduction,
		       a.status, a.date_applied, a.last_updated,
		       u.first_name, u.last_name,
		       COALESCE(t.language_spoken, '') AS language_spoken,
		       COALESCE(t.skills, '') AS skills
		FROM applications a
		JOIN users u ON u.user_id = a.traveler_id
		LEFT JOIN travelers t ON t.user_id = a.traveler_id
		WHERE a.listing_id = $1
		ORDER BY a.date_applied DESC, a.application_id DESC
	`, listingID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateListing(ctx context.Context, l listing.Listing, loc listing.Location) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var locationID int64
	err = tx.QueryRowContext(ctx, `
		SELECT location_id FROM listings WHERE listing_id = $1 AND host_id = $2
	`, l.ID, l.HostID).Scan(&locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE listings
		SET title = $2, description = $3, work_hour = $4, duration_day = $5, work_type = $6
		WHERE listing_id = $1
	`, l.ID, l.Title, l.Description, l.WorkHours, l.DurationDays, l.WorkType)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE locations
		SET country = $2, state = NULLIF($3, ''), city = $4, zip_code = NULLIF($5, '')
		WHERE location_id = $1
	`, locationID, loc.Country, loc.State, loc.City, loc.ZipCode)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (s *Store) DeleteListing(ctx context.Context, listingID, hostID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var locationID int64
	err = tx.QueryRowContext(ctx, `
		SELECT location_id FROM listings WHERE listing_id = $1 AND host_id = $2
	`, listingID, hostID).Scan(&locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE listing_id = $1`, listingID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE location_id = $1`, locationID); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// --- ApplicationStore -------------------------------------------------------

func (s *Store) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	now := time.Now().UTC()
	if app.DateApplied.IsZero() {
		app.DateApplied = now
	}
	app.LastUpdated = app.DateApplied

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO applications (listing_id, traveler_id, introduction, status, date_applied, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING application_id
	`, app.ListingID, app.TravelerID, app.Introduction, app.Status, app.DateApplied, app.LastUpdated).Scan(&app.ID)
	if err != nil {
		return application.Application{}, err
	}
	return app, nil
}

func (s *Store) HasApplication(ctx context.Context, travelerID, listingID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM applications WHERE traveler_id = $1 AND listing_id = $2
		)
	`, travelerID, listingID)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, applicationID int64, status application.Status, hostID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE applications a
		SET status = $2, last_updated = $3
		FROM listings l
		WHERE a.application_id = $1
		  AND l.listing_id = a.listing_id
		  AND l.host_id = $4
	`, applicationID, status, time.Now().UTC(), hostID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) ListTravelerApplications(ctx context.Context, travelerID int64) ([]application.TravelerView, error) {
	var result []application.TravelerView
	err := s.db.SelectContext(ctx, &result, `
		SELECT a.application_id, a.listing_id, a.traveler_id, a.introduction,
		       a.status, a.date_applied, a.last_updated,
		       l.title, loc.city, loc.country
		FROM applications a
		JOIN listings l ON l.listing_id = a.listing_id
		JOIN locations loc ON loc.location_id = l.location_id
		WHERE a.traveler_id = $1
		ORDER BY a.date_applied DESC, a.application_id DESC
	`, travelerID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- SearchStore ------------------------------------------------------------

const searchJoins = `
	FROM listings l
	JOIN locations loc ON loc.location_id = l.location_id
	JOIN hosts h ON h.user_id = l.host_id
	JOIN users u ON u.user_id = l.host_id
`

const searchColumns = `
	SELECT l.listing_id, l.host_id, l.location_id, l.title, l.description,
	       l.work_hour, l.duration_day, l.work_type, l.status,
	       loc.city, loc.country,
	       u.first_name, u.last_name,
	       h.rating AS host_rating
`

// searchWhere renders the filter as conjunctive predicates. Substring matches
// are case-insensitive.
func searchWhere(f storage.SearchFilter, args []any) (string, []any) {
	clauses := []string{"l.status = 'active'"}

	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(loc.city ILIKE $%d OR loc.country ILIKE $%d)", n, n))
	}
	if f.WorkType != "" {
		args = append(args, "%"+f.WorkType+"%")
		clauses = append(clauses, fmt.Sprintf("l.work_type ILIKE $%d", len(args)))
	}
	if f.MaxDurationDays > 0 {
		args = append(args, f.MaxDurationDays)
		clauses = append(clauses, fmt.Sprintf("l.duration_day <= $%d", len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) SearchListings(ctx context.Context, f storage.SearchFilter, limit, offset int) ([]listing.SearchResult, int, error) {
	where, args := searchWhere(f, nil)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+searchJoins+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := searchColumns + searchJoins + where +
		fmt.Sprintf(" ORDER BY l.listing_id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var result []listing.SearchResult
	if err := s.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *Store) RecentListings(ctx context.Context, n int) ([]listing.SearchResult, error) {
	var result []listing.SearchResult
	err := s.db.SelectContext(ctx, &result, searchColumns+searchJoins+`
		WHERE l.status = 'active'
		ORDER BY l.listing_id DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) GetListing(ctx context.Context, id int64) (*listing.SearchResult, error) {
	var row listing.SearchResult
	err := s.db.GetContext(ctx, &row, searchColumns+searchJoins+`
		WHERE l.listing_id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
