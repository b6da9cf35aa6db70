// Package identity manages account registration, credential verification and
// profile settings. Password hashing happens here; stores only ever see the
// bcrypt hash.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hosthub/hosthub/internal/app/domain/user"
	"github.com/hosthub/hosthub/internal/app/metrics"
	"github.com/hosthub/hosthub/internal/app/storage"
	"github.com/hosthub/hosthub/pkg/logger"
)

// ErrEmailTaken reports a registration against an email that already has an
// account.
var ErrEmailTaken = storage.ErrEmailTaken

// ErrInvalidCredentials reports a failed login. Unknown email and wrong
// password are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service manages accounts.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs an identity service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("identity")
	}
	return &Service{store: store, log: log}
}

// RegisterInput carries a registration request. Password arrives in plain
// text and never leaves this service unhashed.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// Register creates a new account. The username is derived from the name, the
// way profile pages display it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	if in.FirstName == "" || in.LastName == "" {
		return user.User{}, fmt.Errorf("first and last name are required")
	}
	if in.Email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	if in.Password == "" {
		return user.User{}, fmt.Errorf("password is required")
	}
	role, err := user.ParseRole(in.Role)
	if err != nil {
		return user.User{}, err
	}

	if existing, err := s.store.FindUserByEmail(ctx, in.Email); err != nil {
		return user.User{}, err
	} else if existing != nil {
		return user.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Username:     strings.ToLower(in.FirstName) + "_" + strings.ToLower(in.LastName),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Role:         role,
		PasswordHash: string(hash),
	})
	if err != nil {
		// The pre-check races with concurrent inserts; the unique constraint
		// is the authority.
		return user.User{}, err
	}

	metrics.RecordRegistration(string(role))
	s.log.WithField("user_id", created.ID).Infof("user registered as %s", role)
	return created, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns the account, nil when it does not exist.
func (s *Service) GetUser(ctx context.Context, id int64) (*user.User, error) {
	return s.store.FindUserByID(ctx, id)
}

// Settings is the settings page read model: the account plus whichever role
// profile applies.
type Settings struct {
	User     user.User
	Host     *user.HostProfile
	Traveler *user.TravelerProfile
}

// GetSettings loads the account and its role profile. Nil when the account
// does not exist; a missing profile leaves the corresponding field nil.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*Settings, error) {
	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	settings := &Settings{User: *u}
	switch u.Role {
	case user.RoleHost:
		settings.Host, err = s.store.GetHostProfile(ctx, userID)
	case user.RoleTraveler:
		settings.Traveler, err = s.store.GetTravelerProfile(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// SettingsInput carries a settings save. Role-specific fields are read
// according to the account's stored role, never a caller-supplied one.
type SettingsInput struct {
	FirstName         string
	LastName          string
	Email             string
	PreferredLanguage string
	LanguageSpoken    string
	Skills            string
	Availability      string
}

// UpdateSettings saves the mutable account columns together with the role
// profile in one transaction. False when the account does not exist.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, in SettingsInput) (bool, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return false, fmt.Errorf("first name, last name and email are required")
	}

	u, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}

	upd := storage.SettingsUpdate{
		UserID:    userID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	switch u.Role {
	case user.RoleHost:
		upd.Host = &user.HostProfile{UserID: userID, PreferredLanguage: in.PreferredLanguage}
	case user.RoleTraveler:
		upd.Traveler = &user.TravelerProfile{
			UserID:         userID,
			LanguageSpoken: in.LanguageSpoken,
			Skills:         in.Skills,
			Availability:   in.Availability,
		}
	}

	ok, err := s.store.UpdateSettings(ctx, upd)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.WithField("user_id", userID).Info("settings updated")
	}
	return ok, nil
}
