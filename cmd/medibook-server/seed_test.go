package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/domain/department"
	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/domain/user"
	"github.com/medibook/medibook/internal/platform/auth"
)

type memUserRepo struct {
	users []*user.User
}

func (m *memUserRepo) Create(ctx context.Context, u *user.User) error {
	u.ID = uuid.New()
	m.users = append(m.users, u)
	return nil
}
func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) { return nil, nil }
func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, nil
}
func (m *memUserRepo) Update(ctx context.Context, u *user.User) error { return nil }
func (m *memUserRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}
func (m *memUserRepo) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*user.User, int, error) {
	return m.users, len(m.users), nil
}

type memDoctorRepo struct {
	doctors []*doctor.Doctor
}

func (m *memDoctorRepo) Create(ctx context.Context, d *doctor.Doctor) error {
	d.ID = uuid.New()
	m.doctors = append(m.doctors, d)
	return nil
}
func (m *memDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return nil, nil
}
func (m *memDoctorRepo) Update(ctx context.Context, d *doctor.Doctor) error { return nil }
func (m *memDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (m *memDoctorRepo) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*doctor.Doctor, int, error) {
	return m.doctors, len(m.doctors), nil
}

type memDepartmentRepo struct {
	departments []*department.Department
}

func (m *memDepartmentRepo) Create(ctx context.Context, d *department.Department) error {
	d.ID = uuid.New()
	m.departments = append(m.departments, d)
	return nil
}
func (m *memDepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	return nil, nil
}
func (m *memDepartmentRepo) Update(ctx context.Context, d *department.Department) error { return nil }
func (m *memDepartmentRepo) Delete(ctx context.Context, id uuid.UUID) error             { return nil }
func (m *memDepartmentRepo) List(ctx context.Context, limit, offset int) ([]*department.Department, int, error) {
	return m.departments, len(m.departments), nil
}

func TestRunSeed(t *testing.T) {
	users := &memUserRepo{}
	doctors := &memDoctorRepo{}
	departments := &memDepartmentRepo{}

	err := runSeed(context.Background(), seedDeps{
		users:       users,
		doctors:     doctors,
		departments: departments,
	}, 2, 5, "supersecret")
	if err != nil {
		t.Fatalf("runSeed failed: %v", err)
	}

	if len(departments.departments) != len(seedSpecialties) {
		t.Errorf("departments = %d, want %d", len(departments.departments), len(seedSpecialties))
	}
	if len(doctors.doctors) != len(seedSpecialties)*2 {
		t.Errorf("doctors = %d, want %d", len(doctors.doctors), len(seedSpecialties)*2)
	}

	var admins, doctorAccounts, patients int
	for _, u := range users.users {
		switch u.Role {
		case auth.RoleAdmin:
			admins++
			if !auth.CheckPassword("supersecret", u.PasswordHash) {
				t.Error("admin password not set from flag")
			}
		case auth.RoleDoctor:
			doctorAccounts++
			if u.DoctorID == nil {
				t.Error("doctor account missing profile link")
			}
		case auth.RoleUser:
			patients++
		}
		if strings.Contains(u.PasswordHash, "123") {
			t.Error("password stored unhashed")
		}
	}
	if admins != 1 || patients != 5 || doctorAccounts != len(doctors.doctors) {
		t.Errorf("accounts: admins=%d patients=%d doctors=%d", admins, patients, doctorAccounts)
	}
}
