package medicalhistory

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for medical history records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error)
	Recent(ctx context.Context, userID uuid.UUID, n int) ([]*Record, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
}
