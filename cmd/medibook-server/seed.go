package main

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/medibook/medibook/internal/config"
	"github.com/medibook/medibook/internal/domain/department"
	"github.com/medibook/medibook/internal/domain/doctor"
	"github.com/medibook/medibook/internal/domain/user"
	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/db"
)

// seedSpecialties pairs each seeded department with a doctor specialty.
var seedSpecialties = map[string]string{
	"Cardiology":    "Cardiologist",
	"Neurology":     "Neurologist",
	"Orthopedics":   "Orthopedic Surgeon",
	"Pediatrics":    "Pediatrician",
	"Dermatology":   "Dermatologist",
	"Ophthalmology": "Ophthalmologist",
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with development data",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorsPerDept, _ := cmd.Flags().GetInt("doctors")
			patients, _ := cmd.Flags().GetInt("patients")
			adminPassword, _ := cmd.Flags().GetString("admin-password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, seedDeps{
				users:       user.NewRepo(pool),
				doctors:     doctor.NewRepo(pool),
				departments: department.NewRepo(pool),
			}, doctorsPerDept, patients, adminPassword)
		},
	}
	cmd.Flags().Int("doctors", 2, "Doctors to create per department")
	cmd.Flags().Int("patients", 10, "Patient accounts to create")
	cmd.Flags().String("admin-password", "admin123", "Password for the default admin account")
	return cmd
}

type seedDeps struct {
	users       user.Repository
	doctors     doctor.Repository
	departments department.Repository
}

func runSeed(ctx context.Context, deps seedDeps, doctorsPerDept, patients int, adminPassword string) error {
	faker := gofakeit.New(0)

	for deptName, specialty := range seedSpecialties {
		dept := &department.Department{
			Name:        deptName,
			Description: faker.Sentence(12),
		}
		if err := deps.departments.Create(ctx, dept); err != nil {
			return fmt.Errorf("seed department %s: %w", deptName, err)
		}

		for i := 0; i < doctorsPerDept; i++ {
			email := faker.Email()
			phone := faker.Phone()
			doc := &doctor.Doctor{
				Name:            "Dr. " + faker.Name(),
				Specialty:       specialty,
				Description:     faker.Paragraph(1, 3, 12, " "),
				ExperienceYears: faker.Number(2, 30),
				ConsultationFee: float64(faker.Number(100, 400)),
				DepartmentID:    &dept.ID,
				Email:           &email,
				Phone:           &phone,
				Available:       true,
			}
			if err := deps.doctors.Create(ctx, doc); err != nil {
				return fmt.Errorf("seed doctor in %s: %w", deptName, err)
			}

			// Give each doctor a login linked to their profile.
			hash, err := auth.HashPassword("doctor123")
			if err != nil {
				return err
			}
			account := &user.User{
				Name:               doc.Name,
				Email:              email,
				PasswordHash:       hash,
				Phone:              &phone,
				Role:               auth.RoleDoctor,
				DoctorID:           &doc.ID,
				Status:             user.StatusActive,
				EmailNotifications: true,
			}
			if err := deps.users.Create(ctx, account); err != nil {
				return fmt.Errorf("seed doctor account: %w", err)
			}
		}
	}

	for i := 0; i < patients; i++ {
		hash, err := auth.HashPassword("patient123")
		if err != nil {
			return err
		}
		phone := faker.Phone()
		p := &user.User{
			Name:               faker.Name(),
			Email:              fmt.Sprintf("patient%d@example.com", i+1),
			PasswordHash:       hash,
			Phone:              &phone,
			Role:               auth.RoleUser,
			Status:             user.StatusActive,
			EmailNotifications: true,
		}
		if err := deps.users.Create(ctx, p); err != nil {
			return fmt.Errorf("seed patient %d: %w", i+1, err)
		}
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}
	admin := &user.User{
		Name:               "Administrator",
		Email:              "admin@medibook.local",
		PasswordHash:       hash,
		Role:               auth.RoleAdmin,
		Status:             user.StatusActive,
		EmailNotifications: true,
	}
	if err := deps.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	fmt.Printf("Seeded %d departments, %d doctors, %d patients and 1 admin (admin@medibook.local).\n",
		len(seedSpecialties), len(seedSpecialties)*doctorsPerDept, patients)
	return nil
}
