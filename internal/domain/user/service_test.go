package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medibook/medibook/internal/platform/auth"
)

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) Update(ctx context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.LastLogin = &at
	return nil
}

func (m *mockRepo) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if role, ok := filters["role"]; ok && u.Role != role {
			continue
		}
		if status, ok := filters["status"]; ok && u.Status != status {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func testTokens() auth.TokenConfig {
	return auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour}
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockRepo(), testTokens())

	u, token, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Doe",
		Email:    "Jane@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if u.Email != "jane@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Role != auth.RoleUser {
		t.Errorf("default role = %q, want %q", u.Role, auth.RoleUser)
	}
	if u.Status != StatusActive {
		t.Errorf("status = %q, want %q", u.Status, StatusActive)
	}
	if u.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMockRepo(), testTokens())
	ctx := context.Background()

	in := RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret123"}
	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, _, err := svc.Register(ctx, in)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMockRepo(), testTokens())
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "secret123"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "abc"}},
		{"admin role", RegisterInput{Name: "A", Email: "a@b.com", Password: "secret123", Role: auth.RoleAdmin}},
		{"unknown role", RegisterInput{Name: "A", Email: "a@b.com", Password: "secret123", Role: "superuser"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.Register(ctx, tc.in); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testTokens())
	ctx := context.Background()

	reg, _, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, token, err := svc.Login(ctx, "jane@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if u.ID != reg.ID {
		t.Errorf("logged in as %s, want %s", u.ID, reg.ID)
	}
	if u.LastLogin == nil {
		t.Error("last_login not recorded")
	}

	claims, err := testTokens().Parse(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != reg.ID.String() {
		t.Errorf("token subject = %q, want %q", claims.Subject, reg.ID)
	}
	if claims.Role != auth.RoleUser {
		t.Errorf("token role = %q, want %q", claims.Role, auth.RoleUser)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMockRepo(), testTokens())
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "jane@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginBlockedAccount(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testTokens())
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.SetStatus(ctx, u.ID, StatusBlocked); err != nil {
		t.Fatalf("block: %v", err)
	}

	if _, _, err := svc.Login(ctx, "jane@example.com", "secret123"); !errors.Is(err, ErrAccountBlocked) {
		t.Errorf("err = %v, want ErrAccountBlocked", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testTokens())
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	phone := "+1-555-0100"
	off := false
	updated, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{
		Name:               "Jane Smith",
		Phone:              &phone,
		EmailNotifications: &off,
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Name != "Jane Smith" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Phone == nil || *updated.Phone != phone {
		t.Errorf("phone = %v", updated.Phone)
	}
	if updated.EmailNotifications {
		t.Error("email notifications should be off")
	}
	if updated.Email != "jane@example.com" {
		t.Errorf("email changed: %q", updated.Email)
	}
}

func TestSetRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, testTokens())
	ctx := context.Background()

	u, _, err := svc.Register(ctx, RegisterInput{Name: "Greg", Email: "greg@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.SetRole(ctx, u.ID, auth.RoleDoctor, nil); err == nil {
		t.Error("promoting to doctor without doctor_id should fail")
	}

	docID := uuid.New()
	promoted, err := svc.SetRole(ctx, u.ID, auth.RoleDoctor, &docID)
	if err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if promoted.Role != auth.RoleDoctor || promoted.DoctorID == nil || *promoted.DoctorID != docID {
		t.Errorf("promotion not applied: role=%q doctor_id=%v", promoted.Role, promoted.DoctorID)
	}

	demoted, err := svc.SetRole(ctx, u.ID, auth.RoleUser, nil)
	if err != nil {
		t.Fatalf("SetRole demote failed: %v", err)
	}
	if demoted.DoctorID != nil {
		t.Error("doctor link should be cleared on demotion")
	}
}
