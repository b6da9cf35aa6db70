package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/storage/memory"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	created, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana@example.com",
		Password:  "hunter2!",
		Role:      "host",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	if created.Username != "ana_silva" {
		t.Fatalf("unexpected username %q", created.Username)
	}
	if created.PasswordHash == "hunter2!" {
		t.Fatalf("password stored in plain text")
	}

	if _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "ana@example.com",
		Password:  "pw",
		Role:      "traveler",
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	u, err := svc.Authenticate(ctx, "ana@example.com", "hunter2!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("authenticated wrong user")
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "hunter2!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{LastName: "x", Email: "a@b", Password: "p", Role: "host"}); err == nil {
		t.Fatalf("expected error for missing first name")
	}
	if _, err := svc.Register(ctx, RegisterInput{FirstName: "x", LastName: "y", Email: "a@b", Password: "p", Role: "admin"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, err := svc.Register(ctx, RegisterInput{FirstName: "x", LastName: "y", Email: "a@b", Role: "host"}); err == nil {
		t.Fatalf("expected error for missing password")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	traveler, err := svc.Register(ctx, RegisterInput{
		FirstName: "Tom",
		LastName:  "Reed",
		Email:     "tom@example.com",
		Password:  "pw",
		Role:      "traveler",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ok, err := svc.UpdateSettings(ctx, traveler.ID, SettingsInput{
		FirstName:      "Tom",
		LastName:       "Reed",
		Email:          "tom.reed@example.com",
		LanguageSpoken: "english",
		Skills:         "gardening",
		Availability:   "summer",
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !ok {
		t.Fatalf("expected settings update to apply")
	}

	settings, err := svc.GetSettings(ctx, traveler.ID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings == nil {
		t.Fatalf("expected settings for existing user")
	}
	if settings.User.Email != "tom.reed@example.com" {
		t.Fatalf("email not updated, got %q", settings.User.Email)
	}
	if settings.User.Role != user.RoleTraveler {
		t.Fatalf("role changed unexpectedly")
	}
	if settings.Traveler == nil || settings.Traveler.Skills != "gardening" {
		t.Fatalf("traveler profile not persisted: %+v", settings.Traveler)
	}
	if settings.Host != nil {
		t.Fatalf("traveler should not have a host profile")
	}

	// The old email is released for reuse.
	if u, _ := store.FindUserByEmail(ctx, "tom@example.com"); u != nil {
		t.Fatalf("old email still resolves")
	}

	ok, err = svc.UpdateSettings(ctx, 9999, SettingsInput{FirstName: "a", LastName: "b", Email: "c@d"})
	if err != nil {
		t.Fatalf("update settings for missing user: %v", err)
	}
	if ok {
		t.Fatalf("expected false for missing user")
	}
}

func TestSettingsCannotTakeAnotherUsersEmail(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{
		FirstName: "Ana", LastName: "Silva",
		Email: "ana@example.com", Password: "pw", Role: "host",
	})
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	second, err := svc.Register(ctx, RegisterInput{
		FirstName: "Bea", LastName: "Moro",
		Email: "bea@example.com", Password: "pw", Role: "traveler",
	})
	if err != nil {
		t.Fatalf("register second: %v", err)
	}

	// Claiming an email that belongs to another account must fail and leave
	// both accounts untouched.
	if _, err := svc.UpdateSettings(ctx, first.ID, SettingsInput{
		FirstName: "Ana", LastName: "Silva", Email: "bea@example.com",
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if u, _ := svc.Authenticate(ctx, "bea@example.com", "pw"); u == nil || u.ID != second.ID {
		t.Fatalf("second account lost its email")
	}
	if u, _ := svc.Authenticate(ctx, "ana@example.com", "pw"); u == nil || u.ID != first.ID {
		t.Fatalf("first account lost its email")
	}

	// Re-saving your own email is not a conflict.
	ok, err := svc.UpdateSettings(ctx, first.ID, SettingsInput{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("re-save own email: %v", err)
	}
	if !ok {
		t.Fatalf("expected own-email save to apply")
	}
}
