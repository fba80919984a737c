package doctor

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConsultationFee is applied when a doctor is created without a fee.
const DefaultConsultationFee = 150

// Doctor maps to the doctors table. Image holds the generated file name of
// the uploaded photo, served under /pic-uploads.
type Doctor struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Specialty       string     `db:"specialty" json:"specialty"`
	Description     string     `db:"description" json:"description"`
	ExperienceYears int        `db:"experience_years" json:"experience_years"`
	ConsultationFee float64    `db:"consultation_fee" json:"consultation_fee"`
	DepartmentID    *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	Email           *string    `db:"email" json:"email,omitempty"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Image           string     `db:"image" json:"image,omitempty"`
	Available       bool       `db:"available" json:"available"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
