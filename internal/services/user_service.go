package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const guestCreateAttempts = 3

// UserServiceProvider defines the interface for the credential service.
type UserServiceProvider interface {
	Register(ctx context.Context, input RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	GuestLogin(ctx context.Context) (AuthResult, error)
	Verify(ctx context.Context, token string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// RegisterInput defines the structure for registration requests.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AuthResult is returned by every successful authentication.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// UserService provides business logic for user management.
type UserService struct {
	users  store.UserStore
	tokens *auth.TokenIssuer
	notify notifier
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, tokens *auth.TokenIssuer, hub Broadcaster, scope string) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		notify: notifier{hub: hub, scope: scope},
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) issue(user models.User) (AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to generate token: %w", err)
	}
	user.PasswordHash = ""
	return AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return AuthResult{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return AuthResult{}, err
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return s.issue(user)
}

// Login verifies a user's credentials.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return AuthResult{}, err
	}
	if user.IsGuest || user.PasswordHash == "" {
		return AuthResult{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return s.issue(user)
}

// GuestLogin creates a throwaway guest account with a randomized name and email.
func (s *UserService) GuestLogin(ctx context.Context) (AuthResult, error) {
	var err error
	for attempt := 0; attempt < guestCreateAttempts; attempt++ {
		now := s.now().UTC()
		n := rand.Intn(9000) + 1000
		user := models.User{
			ID:        uuid.New().String(),
			Name:      fmt.Sprintf("Guest%d", n),
			Email:     fmt.Sprintf("guest-%d-%d@example.com", n, now.UnixMilli()),
			IsGuest:   true,
			CreatedAt: now,
		}
		err = s.users.CreateUser(ctx, user)
		if err == nil {
			log.Info().Str("user_id", user.ID).Str("name", user.Name).Msg("Guest account created")
			return s.issue(user)
		}
		if !errors.Is(err, store.ErrConflict) {
			return AuthResult{}, err
		}
	}
	return AuthResult{}, fmt.Errorf("failed to allocate guest account: %w", err)
}

// Verify resolves a token into the user it was issued for.
func (s *UserService) Verify(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// PurgeExpiredGuests deletes guest accounts whose credential can no longer be
// valid and announces their departure from every event they attended.
func (s *UserService) PurgeExpiredGuests(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.tokens.TTL(models.User{IsGuest: true}))
	guests, err := s.users.ListGuestsCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired guests: %w", err)
	}

	purged := 0
	for _, guest := range guests {
		eventIDs, err := s.users.DeleteUser(ctx, guest.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return purged, fmt.Errorf("failed to delete guest %s: %w", guest.ID, err)
		}
		for _, eventID := range eventIDs {
			s.notify.left(eventID, guest.ID)
		}
		purged++
	}
	return purged, nil
}
