package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/db"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBlocked     = errors.New("account is blocked")
)

const minPasswordLen = 6

type Service struct {
	users  Repository
	tokens auth.TokenConfig
}

func NewService(users Repository, tokens auth.TokenConfig) *Service {
	return &Service{users: users, tokens: tokens}
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role,omitempty"`
}

// Register creates an account and returns it together with a signed token.
// Admin accounts cannot be self-registered; they are created by the seed
// command or promoted by an existing admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return nil, "", fmt.Errorf("name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, "", fmt.Errorf("a valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if in.Role == "" {
		in.Role = auth.RoleUser
	}
	if in.Role != auth.RoleUser && in.Role != auth.RoleDoctor {
		return nil, "", fmt.Errorf("role must be %q or %q", auth.RoleUser, auth.RoleDoctor)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Name:               in.Name,
		Email:              in.Email,
		PasswordHash:       hash,
		Phone:              in.Phone,
		Role:               in.Role,
		Status:             StatusActive,
		EmailNotifications: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID, u.Role, u.Name, u.DoctorID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// Unknown emails and wrong passwords produce the same error so the endpoint
// doesn't leak which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if u.IsBlocked() {
		return nil, "", ErrAccountBlocked
	}

	now := time.Now()
	if err := s.users.RecordLogin(ctx, u.ID, now); err == nil {
		u.LastLogin = &now
	}

	token, err := s.tokens.Issue(u.ID, u.Role, u.Name, u.DoctorID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ProfileInput is the payload for self-service profile updates. Email and
// role are deliberately not editable here.
type ProfileInput struct {
	Name               string  `json:"name"`
	Phone              *string `json:"phone,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	SMSNotifications   *bool   `json:"sms_notifications,omitempty"`
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.EmailNotifications != nil {
		u.EmailNotifications = *in.EmailNotifications
	}
	if in.SMSNotifications != nil {
		u.SMSNotifications = *in.SMSNotifications
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, filters, limit, offset)
}

// SetStatus blocks or unblocks an account.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*User, error) {
	if status != StatusActive && status != StatusBlocked {
		return nil, fmt.Errorf("status must be %q or %q", StatusActive, StatusBlocked)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Status = status
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetRole changes an account's role. Linking to a doctor profile is required
// when promoting to the doctor role so ownership checks can resolve.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role string, doctorID *uuid.UUID) (*User, error) {
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if role == auth.RoleDoctor && doctorID == nil {
		return nil, fmt.Errorf("doctor_id is required for the doctor role")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if role == auth.RoleDoctor {
		u.DoctorID = doctorID
	} else {
		u.DoctorID = nil
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
