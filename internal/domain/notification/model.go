package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification types, one per appointment lifecycle event.
const (
	TypeAppointmentCreated   = "appointment_created"
	TypeAppointmentConfirmed = "appointment_confirmed"
	TypeAppointmentCancelled = "appointment_cancelled"
	TypeAppointmentCompleted = "appointment_completed"
)

// ValidType reports whether the given type is a known notification type.
func ValidType(t string) bool {
	switch t {
	case TypeAppointmentCreated, TypeAppointmentConfirmed,
		TypeAppointmentCancelled, TypeAppointmentCompleted:
		return true
	}
	return false
}

// Data carries the references embedded in a notification, stored as jsonb.
type Data struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
}

// Notification maps to the notifications table.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	Data      Data       `db:"data" json:"data"`
	Read      bool       `db:"read" json:"read"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
