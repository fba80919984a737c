package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, filters map[string]string, limit, offset int) ([]*User, int, error)
}
