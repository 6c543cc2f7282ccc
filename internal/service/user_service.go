package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"inventory-management/internal/domain"
	"inventory-management/internal/repository"
)

const (
	maxNameLength     = 50
	maxEmailLength    = 100
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordLength = 72

	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var validate = validator.New()

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports unusable input. Its message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, page, size int) (*domain.UserPage, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	users      repository.UserRepository
	bcryptCost int
}

// Option tweaks a UserService.
type Option func(*userService)

// WithBcryptCost overrides the hashing cost, mostly to keep tests fast.
func WithBcryptCost(cost int) Option {
	return func(s *userService) {
		s.bcryptCost = cost
	}
}

func NewUserService(users repository.UserRepository, opts ...Option) UserService {
	s := &userService{
		users:      users,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context, page, size int) (*domain.UserPage, error) {
	if page < 1 {
		return nil, invalid("page", "must be at least 1")
	}
	if size < 1 {
		return nil, invalid("size", "must be at least 1")
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	result, err := s.users.List(ctx, page, size)
	if err != nil {
		return nil, err
	}
	for i := range result.Users {
		result.Users[i].PasswordHash = ""
	}
	return result, nil
}

func (s *userService) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	var change domain.UserUpdate
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		change.Name = &name
	}
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		change.Email = &email
	}
	if update.Password != nil {
		if err := validatePassword(*update.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*update.Password)
		if err != nil {
			return nil, err
		}
		change.Password = &hash
	}

	user, err := s.users.Update(ctx, id, change)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, mapNotFound(err)
	}
	return sanitizeUser(user), nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	return mapNotFound(s.users.Delete(ctx, id))
}

func (s *userService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return invalid("name", "must be at most %d characters", maxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLength {
		return invalid("email", "must be at most %d characters", maxEmailLength)
	}
	if err := validate.Var(email, "email"); err != nil {
		return invalid("email", "is not a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return invalid("password", "is required")
	}
	if len(password) < minPasswordLength {
		return invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return invalid("password", "must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
