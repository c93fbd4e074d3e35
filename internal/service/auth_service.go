package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
	"github.com/vedran77/voiceapp/internal/repository"
	"github.com/vedran77/voiceapp/pkg/validator"
)

var (
	ErrDuplicateUser   = errors.New("user already exists")
	ErrInvalidCreds    = errors.New("invalid credentials")
	ErrUserNotFound    = errors.New("user not found")
	ErrMissingField    = errors.New("missing required field")
	ErrNoFileProvided  = errors.New("no file provided")
	ErrValidationError = errors.New("validation failed")
)

// FieldError carries per-field validation messages and matches
// ErrMissingField or ErrValidationError with errors.Is.
type FieldError struct {
	Kind   error
	Fields validator.ValidationErrors
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Fields)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// TokenIssuer is the part of the token service the auth flows need.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	clock    Clock
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer, clock Clock) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		clock:    clock,
	}
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	City    *string `json:"city"`
	Country *string `json:"country"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResponse, error) {
	input.Email = strings.TrimSpace(input.Email)
	if errs := validator.ValidateSignup(input.Email, input.Password); errs.HasErrors() {
		return nil, &FieldError{Kind: ErrMissingField, Fields: errs}
	}
	if errs := validator.ValidateLocation(input.City, input.Country); errs.HasErrors() {
		return nil, &FieldError{Kind: ErrValidationError, Fields: errs}
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hash,
		City:         orDefault(input.City),
		Country:      orDefault(input.Country),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	return s.respond(user)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.PublicUser, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

// UpdateProfile overwrites only the fields that are present and non-empty.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.PublicUser, error) {
	var city, country string
	if input.City != nil {
		city = strings.TrimSpace(*input.City)
	}
	if input.Country != nil {
		country = strings.TrimSpace(*input.Country)
	}
	if errs := validator.ValidateLocation(city, country); errs.HasErrors() {
		return nil, &FieldError{Kind: ErrValidationError, Fields: errs}
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if city != "" {
		user.City = city
	}
	if country != "" {
		user.Country = country
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) SetProfilePicture(ctx context.Context, userID uuid.UUID, filename string) (string, error) {
	if filename == "" {
		return "", ErrNoFileProvided
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	user.ProfilePic = &filename
	user.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, user); err != nil {
		return "", err
	}
	return filename, nil
}

func (s *AuthService) getUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) save(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

func (s *AuthService) respond(user *domain.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthResponse{Token: token, User: user.Public()}, nil
}

func orDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.DefaultLocation
	}
	return s
}
