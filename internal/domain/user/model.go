package user

import (
	"time"

	"github.com/google/uuid"
)

// Account status values.
const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

// User maps to the users table. A user with role "doctor" carries a back
// reference to their doctor profile. Accounts are never hard-deleted; admins
// block them instead.
type User struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	Phone              *string    `db:"phone" json:"phone,omitempty"`
	Role               string     `db:"role" json:"role"`
	DoctorID           *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	Status             string     `db:"status" json:"status"`
	EmailNotifications bool       `db:"email_notifications" json:"email_notifications"`
	SMSNotifications   bool       `db:"sms_notifications" json:"sms_notifications"`
	LastLogin          *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// IsBlocked reports whether the account is blocked from signing in.
func (u *User) IsBlocked() bool { return u.Status == StatusBlocked }
