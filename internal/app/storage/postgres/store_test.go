package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hosthub/hosthub/internal/app/domain/application"
	"github.com/hosthub/hosthub/internal/app/domain/listing"
	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateUser(context.Background(), user.User{Email: "dup@example.com", Role: user.RoleHost})
	if !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	expectMet(t, mock)
}

func TestFindUserByIDMiss(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT user_id, username").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	u, err := store.FindUserByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil for missing user, got %+v", u)
	}
	expectMet(t, mock)
}

func TestUpdateSettingsMissingUserRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ok, err := store.UpdateSettings(context.Background(), storage.SettingsUpdate{
		UserID: 7, FirstName: "A", LastName: "B", Email: "a@b",
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if ok {
		t.Fatalf("expected false for missing user")
	}
	expectMet(t, mock)
}

func TestUpdateSettingsTravelerProfileInSameTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO travelers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := store.UpdateSettings(context.Background(), storage.SettingsUpdate{
		UserID: 7, FirstName: "A", LastName: "B", Email: "a@b",
		Traveler: &user.TravelerProfile{UserID: 7, Skills: "cooking"},
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !ok {
		t.Fatalf("expected settings update to apply")
	}
	expectMet(t, mock)
}

func TestCreateListingSingleTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO locations").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO listings").
		WillReturnRows(sqlmock.NewRows([]string{"listing_id"}).AddRow(21))
	mock.ExpectCommit()

	created, err := store.CreateListing(context.Background(), listing.Listing{
		HostID: 1, Title: "t", Description: "d", WorkHours: 3, DurationDays: 7,
		WorkType: "farming", Status: listing.StatusActive,
	}, listing.Location{Country: "PT", City: "Porto"})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if created.ID != 21 || created.LocationID != 11 {
		t.Fatalf("ids not assigned: %+v", created)
	}
	expectMet(t, mock)
}

func TestCreateListingRollsBackWhenListingInsertFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO locations").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO listings").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := store.CreateListing(context.Background(), listing.Listing{HostID: 1},
		listing.Location{Country: "PT", City: "Porto"})
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	expectMet(t, mock)
}

func TestUpdateListingOwnershipMiss(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT location_id FROM listings").
		WithArgs(int64(5), int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	ok, err := store.UpdateListing(context.Background(), listing.Listing{ID: 5, HostID: 99},
		listing.Location{Country: "PT", City: "Porto"})
	if err != nil {
		t.Fatalf("update listing: %v", err)
	}
	if ok {
		t.Fatalf("foreign host must look like not-found")
	}
	expectMet(t, mock)
}

func TestUpdateListingRollsBackWhenLocationUpdateFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT location_id FROM listings").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))
	mock.ExpectExec("UPDATE listings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE locations").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.UpdateListing(context.Background(), listing.Listing{ID: 5, HostID: 1},
		listing.Location{Country: "PT", City: "Porto"})
	if err == nil {
		t.Fatalf("expected error so neither row is half-written")
	}
	expectMet(t, mock)
}

func TestDeleteListingRemovesLocation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT location_id FROM listings").
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))
	mock.ExpectExec("DELETE FROM listings").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM locations").
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := store.DeleteListing(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("delete listing: %v", err)
	}
	if !ok {
		t.Fatalf("expected delete to apply")
	}
	expectMet(t, mock)
}

func TestDeleteListingRollsBackWhenLocationDeleteFails(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT location_id FROM listings").
		WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow(11))
	mock.ExpectExec("DELETE FROM listings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM locations").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, err := store.DeleteListing(context.Background(), 5, 1)
	if err == nil {
		t.Fatalf("expected error so the listing delete is rolled back")
	}
	expectMet(t, mock)
}

func TestGetDetailsScopesToOwner(t *testing.T) {
	store, mock := newMockStore(t)

	owner := int64(3)
	mock.ExpectQuery(`AND l.host_id = \$2`).
		WithArgs(int64(5), owner).
		WillReturnRows(sqlmock.NewRows([]string{
			"listing_id", "host_id", "location_id", "title", "description",
			"work_hour", "duration_day", "work_type", "status",
			"city", "country", "state", "zip_code",
			"total_applications", "pending_applications", "accepted_applications",
		}).AddRow(5, 3, 11, "t", "d", 4, 10, "farming", "active", "Porto", "PT", "", "", 2, 1, 1))

	details, err := store.GetDetails(context.Background(), 5, &owner)
	if err != nil {
		t.Fatalf("get details: %v", err)
	}
	if details == nil || details.TotalApplications != 2 || details.PendingApplications != 1 {
		t.Fatalf("unexpected details: %+v", details)
	}
	expectMet(t, mock)
}

func TestUpdateApplicationStatusRequiresOwningHost(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE applications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.UpdateApplicationStatus(context.Background(), 8, application.StatusAccepted, 99)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if ok {
		t.Fatalf("expected false when the join matches nothing")
	}
	expectMet(t, mock)
}

func TestSearchListingsCombinesFilters(t *testing.T) {
	store, mock := newMockStore(t)

	f := storage.SearchFilter{Location: "Porto", WorkType: "farm", MaxDurationDays: 30}

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("%Porto%", "%farm%", 30).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY l.listing_id DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("%Porto%", "%farm%", 30, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"listing_id", "host_id", "location_id", "title", "description",
			"work_hour", "duration_day", "work_type", "status",
			"city", "country", "first_name", "last_name", "host_rating",
		}).AddRow(5, 3, 11, "t", "d", 4, 10, "farming", "active", "Porto", "PT", "Maria", "Costa", 4.5))

	rows, total, err := store.SearchListings(context.Background(), f, 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected one hit, got total=%d rows=%d", total, len(rows))
	}
	if rows[0].HostFirstName != "Maria" || rows[0].HostRating != 4.5 {
		t.Fatalf("host join missing: %+v", rows[0])
	}
	expectMet(t, mock)
}

func TestGetListingMiss(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("WHERE l.listing_id").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	row, err := store.GetListing(context.Background(), 404)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil for missing listing")
	}
	expectMet(t, mock)
}
