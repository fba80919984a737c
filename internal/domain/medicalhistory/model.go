package medicalhistory

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is one prescribed item, stored as jsonb.
type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Duration  string `json:"duration"`
	Frequency string `json:"frequency"`
}

// Vitals recorded at the visit.
type Vitals struct {
	BloodPressure string  `db:"blood_pressure" json:"blood_pressure,omitempty"`
	Temperature   float64 `db:"temperature" json:"temperature,omitempty"`
	Weight        float64 `db:"weight" json:"weight,omitempty"`
	Height        float64 `db:"height" json:"height,omitempty"`
}

// Record maps to the medical_history table. One record per visit, written by
// the treating doctor.
type Record struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	VisitDate     time.Time  `db:"visit_date" json:"visit_date"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Symptoms      []string   `db:"symptoms" json:"symptoms,omitempty"`
	Prescription  string     `db:"prescription" json:"prescription,omitempty"`
	Medicines     []Medicine `db:"medicines" json:"medicines,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	Vitals        Vitals     `json:"vitals"`
	Allergies     []string   `db:"allergies" json:"allergies,omitempty"`
	FollowUpDate  *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpNotes string     `db:"follow_up_notes" json:"follow_up_notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Summary aggregates a patient's most recent records.
type Summary struct {
	UserID           uuid.UUID  `json:"user_id"`
	Allergies        []string   `json:"allergies"`
	RecentDiagnoses  []string   `json:"recent_diagnoses"`
	TotalVisits      int        `json:"total_visits"`
	LastVisit        *time.Time `json:"last_visit,omitempty"`
}
