// Package auth registers and logs in users and edits their account data.
package auth

import (
	"context"
	"strings"
	"time"

	"feastfleet/models"
	"feastfleet/store"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email, password or account type")
	ErrInvalidUserType    = errors.New("user type must be customer or vendor")
	ErrInvalidInput       = errors.New("invalid input")
)

const DefaultSpiceLevel = 3

type Service struct {
	store store.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(s store.Store, log logrus.FieldLogger) *Service {
	return &Service{store: s, log: log, now: time.Now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	UserType models.UserType
}

// Register creates a user with an empty profile. When only the write to
// storage fails the new user is returned together with the error.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if strings.TrimSpace(in.Name) == "" || email == "" || in.Password == "" {
		return models.User{}, errors.Wrap(ErrInvalidInput, "name, email and password are required")
	}
	if !in.UserType.Valid() {
		return models.User{}, ErrInvalidUserType
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hashing password")
	}
	user := models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		UserType:     in.UserType,
		CreatedAt:    unixSeconds(s.now()),
		Profile: models.Profile{
			Preferences: []string{},
			Allergies:   []string{},
		},
	}
	// the email check and the insert are one step in the store
	if err := s.store.Users().InsertUnique(ctx, &user, "email"); err != nil {
		if errors.Is(err, store.ErrNotPersisted) {
			return user, err
		}
		if errors.Is(err, store.ErrDuplicateValue) || errors.Is(err, store.ErrDuplicateID) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "user_type": user.UserType}).Info("user registered")
	return user, nil
}

// Login succeeds only when email, password and account type all match.
// A legacy SHA-256 hash is replaced with bcrypt on the way through.
func (s *Service) Login(ctx context.Context, email, password string, userType models.UserType) (models.User, error) {
	user, err := store.UserByEmail(ctx, s.store, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	ok, legacy := VerifyPassword(user.PasswordHash, password)
	if !ok || user.UserType != userType {
		return models.User{}, ErrInvalidCredentials
	}
	if legacy {
		if hash, err := HashPassword(password); err == nil {
			user.PasswordHash = hash
			if err := s.store.Users().Update(ctx, user); err != nil {
				s.log.WithError(err).WithField("user_id", user.ID).Warn("password rehash not saved")
			}
		}
	}
	return user, nil
}

func (s *Service) User(ctx context.Context, userID string) (models.User, error) {
	return s.store.Users().ByID(ctx, userID)
}

type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (models.User, error) {
	return s.mutate(ctx, userID, func(u *models.User) error {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return errors.Wrap(ErrInvalidInput, "name cannot be empty")
			}
			u.Name = name
		}
		if in.Phone != nil {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Address != nil {
			u.Profile.Address = strings.TrimSpace(*in.Address)
		}
		return nil
	})
}

type Preferences struct {
	Preferences      []string
	Allergies        []string
	FavoriteCuisines []string
	SpiceLevel       int
}

// UpdatePreferences replaces the dietary part of the profile. A zero spice
// level means the default.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, in Preferences) (models.User, error) {
	if in.SpiceLevel == 0 {
		in.SpiceLevel = DefaultSpiceLevel
	}
	if in.SpiceLevel < 1 || in.SpiceLevel > 5 {
		return models.User{}, errors.Wrap(ErrInvalidInput, "spice level must be between 1 and 5")
	}
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.Profile.Preferences = nonNil(in.Preferences)
		u.Profile.Allergies = nonNil(in.Allergies)
		u.Profile.FavoriteCuisines = nonNil(in.FavoriteCuisines)
		u.Profile.SpiceLevel = in.SpiceLevel
		return nil
	})
}

func (s *Service) UpdateNotificationSettings(ctx context.Context, userID string, settings models.NotificationSettings) (models.User, error) {
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.NotificationSettings = &settings
		return nil
	})
}

// ChangePassword requires the current password to match.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return errors.Wrap(ErrInvalidInput, "current and new password are required")
	}
	_, err := s.mutate(ctx, userID, func(u *models.User) error {
		if ok, _ := VerifyPassword(u.PasswordHash, current); !ok {
			return ErrInvalidCredentials
		}
		hash, err := HashPassword(next)
		if err != nil {
			return errors.Wrap(err, "hashing password")
		}
		u.PasswordHash = hash
		return nil
	})
	return err
}

// mutate loads a user, applies fn and saves the result. As with Register,
// a write failure still returns the updated user.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*models.User) error) (models.User, error) {
	user, err := s.store.Users().ByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if err := fn(&user); err != nil {
		return models.User{}, err
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotPersisted) {
			return user, err
		}
		return models.User{}, err
	}
	return user, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
