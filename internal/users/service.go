package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// Service is the user directory: the only component that creates user
// records or touches password state.
type Service interface {
	Register(ctx context.Context, input *CreateUserInput) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	VerifyPassword(user *User, password string) bool
	FindOrCreateByEmail(ctx context.Context, email string) (*User, error)
}

type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

// NormalizeEmail lowercases and trims an email address. Every lookup and
// create goes through this so case differences never split an identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, input *CreateUserInput) (*User, error) {
	email := NormalizeEmail(input.Email)

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     email,
		Password:  string(hashedPassword),
	}

	// The exists check above races with concurrent registrations; the unique
	// index on email is the real guard and surfaces as ErrEmailTaken here.
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *service) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// VerifyPassword runs the constant-time bcrypt comparison. It never reports
// why a mismatch happened.
func (s *service) VerifyPassword(user *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// FindOrCreateByEmail provisions a user record on first federated login.
// The created record carries an unguessable random password hash, so it can
// never be used for password auth. Idempotent under concurrency: a create
// that loses the unique-index race falls back to the winning row.
func (s *service) FindOrCreateByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	placeholder, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = &User{
		Username:  email,
		FirstName: "",
		LastName:  "",
		Email:     email,
		Password:  string(placeholder),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return s.repo.GetByEmail(ctx, email)
		}
		return nil, err
	}

	return user, nil
}
