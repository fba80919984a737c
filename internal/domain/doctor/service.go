package doctor

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/db"
	"github.com/medibook/medibook/internal/platform/upload"
)

var (
	ErrHasAppointments = errors.New("doctor has appointments and cannot be deleted")
	ErrEmailTaken      = errors.New("a doctor with this email already exists")
)

type Service struct {
	repo   Repository
	images *upload.Store
	log    zerolog.Logger
}

func NewService(repo Repository, images *upload.Store, log zerolog.Logger) *Service {
	return &Service{repo: repo, images: images, log: log}
}

// Input carries the multipart form fields for create and update.
type Input struct {
	Name            string
	Specialty       string
	Description     string
	ExperienceYears int
	ConsultationFee float64
	DepartmentID    *uuid.UUID
	Email           *string
	Phone           *string
	Available       *bool
}

func (in Input) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	if in.Description == "" {
		return fmt.Errorf("description is required")
	}
	if in.ExperienceYears < 0 {
		return fmt.Errorf("experience_years must not be negative")
	}
	return nil
}

// Create validates the form and optional image before anything is persisted.
// If the insert fails after the image was written, the file is cleaned up.
func (s *Service) Create(ctx context.Context, in Input, image *multipart.FileHeader) (*Doctor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if image != nil {
		if err := s.images.Validate(image); err != nil {
			return nil, err
		}
	}

	d := &Doctor{
		Name:            in.Name,
		Specialty:       in.Specialty,
		Description:     in.Description,
		ExperienceYears: in.ExperienceYears,
		ConsultationFee: in.ConsultationFee,
		DepartmentID:    in.DepartmentID,
		Email:           in.Email,
		Phone:           in.Phone,
		Available:       true,
	}
	if d.ConsultationFee <= 0 {
		d.ConsultationFee = DefaultConsultationFee
	}
	if in.Available != nil {
		d.Available = *in.Available
	}

	if image != nil {
		name, err := s.images.Save(image)
		if err != nil {
			return nil, err
		}
		d.Image = name
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if d.Image != "" {
			if rmErr := s.images.Remove(d.Image); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("file", d.Image).Msg("orphaned upload not removed")
			}
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, filters, limit, offset)
}

// Update applies non-empty form fields. A new image replaces and removes the
// previous file.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, image *multipart.FileHeader) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if image != nil {
		if err := s.images.Validate(image); err != nil {
			return nil, err
		}
	}

	if in.Name != "" {
		d.Name = in.Name
	}
	if in.Specialty != "" {
		d.Specialty = in.Specialty
	}
	if in.Description != "" {
		d.Description = in.Description
	}
	if in.ExperienceYears > 0 {
		d.ExperienceYears = in.ExperienceYears
	}
	if in.ConsultationFee > 0 {
		d.ConsultationFee = in.ConsultationFee
	}
	if in.DepartmentID != nil {
		d.DepartmentID = in.DepartmentID
	}
	if in.Email != nil {
		d.Email = in.Email
	}
	if in.Phone != nil {
		d.Phone = in.Phone
	}
	if in.Available != nil {
		d.Available = *in.Available
	}

	oldImage := ""
	if image != nil {
		name, err := s.images.Save(image)
		if err != nil {
			return nil, err
		}
		oldImage = d.Image
		d.Image = name
	}

	if err := s.repo.Update(ctx, d); err != nil {
		if image != nil {
			if rmErr := s.images.Remove(d.Image); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("file", d.Image).Msg("orphaned upload not removed")
			}
		}
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update doctor: %w", err)
	}

	if oldImage != "" {
		if err := s.images.Remove(oldImage); err != nil {
			s.log.Warn().Err(err).Str("file", oldImage).Msg("replaced image not removed")
		}
	}
	return d, nil
}

// Delete removes a doctor. Doctors referenced by appointments cannot be
// deleted; the foreign key restriction surfaces as ErrHasAppointments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasAppointments
		}
		return fmt.Errorf("delete doctor: %w", err)
	}
	if d.Image != "" {
		if err := s.images.Remove(d.Image); err != nil {
			s.log.Warn().Err(err).Str("file", d.Image).Msg("image of deleted doctor not removed")
		}
	}
	return nil
}

// SetAvailability toggles whether the doctor accepts new appointments.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Available = available
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return d, nil
}
