package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error)
}
