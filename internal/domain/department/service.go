package department

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

// ErrHasDoctors is returned when a department still has doctors assigned.
var ErrHasDoctors = errors.New("department has doctors assigned and cannot be deleted")

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
	Name        string
	Description string
}

func (s *Service) Create(ctx context.Context, in Input, image *multipart.FileHeader) (*Department, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if image != nil {
		if err := s.images.Validate(image); err != nil {
			return nil, err
		}
	}

	d := &Department{Name: in.Name, Description: in.Description}
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
		return nil, fmt.Errorf("create department: %w", err)
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Department, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input, image *multipart.FileHeader) (*Department, error) {
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
	if in.Description != "" {
		d.Description = in.Description
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
		return nil, fmt.Errorf("update department: %w", err)
	}

	if oldImage != "" {
		if err := s.images.Remove(oldImage); err != nil {
			s.log.Warn().Err(err).Str("file", oldImage).Msg("replaced image not removed")
		}
	}
	return d, nil
}

// Delete removes a department unless doctors still reference it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasDoctors
		}
		return fmt.Errorf("delete department: %w", err)
	}
	if d.Image != "" {
		if err := s.images.Remove(d.Image); err != nil {
			s.log.Warn().Err(err).Str("file", d.Image).Msg("image of deleted department not removed")
		}
	}
	return nil
}
