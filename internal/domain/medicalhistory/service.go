package medicalhistory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/medibook/internal/platform/auth"
)

var (
	ErrNotYours        = errors.New("you may only read your own medical history")
	ErrNoDoctorProfile = errors.New("no doctor profile linked to this account")
	ErrNotAuthor       = errors.New("only the doctor who wrote this record may change it")
)

// summaryWindow caps how many recent records feed the summary.
const summaryWindow = 10

// maxRecentDiagnoses limits the diagnoses listed in a summary.
const maxRecentDiagnoses = 5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input is the create/update payload.
type Input struct {
	UserID        uuid.UUID  `json:"user_id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	VisitDate     time.Time  `json:"visit_date"`
	Diagnosis     string     `json:"diagnosis"`
	Symptoms      []string   `json:"symptoms,omitempty"`
	Prescription  string     `json:"prescription,omitempty"`
	Medicines     []Medicine `json:"medicines,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Vitals        Vitals     `json:"vitals"`
	Allergies     []string   `json:"allergies,omitempty"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	FollowUpNotes string     `json:"follow_up_notes,omitempty"`
}

// Create writes a visit record. The treating doctor is taken from the
// caller's linked doctor profile.
func (s *Service) Create(ctx context.Context, ident *auth.Identity, in Input) (*Record, error) {
	if !ident.IsAdmin() && ident.DoctorID == nil {
		return nil, ErrNoDoctorProfile
	}
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("user_id is required")
	}
	if in.AppointmentID == uuid.Nil {
		return nil, fmt.Errorf("appointment_id is required")
	}
	if in.Diagnosis == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}
	if in.VisitDate.IsZero() {
		in.VisitDate = time.Now()
	}

	rec := &Record{
		UserID:        in.UserID,
		AppointmentID: in.AppointmentID,
		VisitDate:     in.VisitDate,
		Diagnosis:     in.Diagnosis,
		Symptoms:      in.Symptoms,
		Prescription:  in.Prescription,
		Medicines:     in.Medicines,
		Notes:         in.Notes,
		Vitals:        in.Vitals,
		Allergies:     in.Allergies,
		FollowUpDate:  in.FollowUpDate,
		FollowUpNotes: in.FollowUpNotes,
	}
	if ident.DoctorID != nil {
		rec.DoctorID = *ident.DoctorID
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create medical history: %w", err)
	}
	return rec, nil
}

// ListByUser returns a patient's history, newest first. Patients may only
// read their own.
func (s *Service) ListByUser(ctx context.Context, ident *auth.Identity, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	if err := checkReadAccess(ident, userID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// GetByAppointment returns the single record written for an appointment.
func (s *Service) GetByAppointment(ctx context.Context, ident *auth.Identity, appointmentID uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := checkReadAccess(ident, rec.UserID); err != nil {
		return nil, err
	}
	return rec, nil
}

// Summarize aggregates the patient's most recent records: allergies
// deduplicated across visits, the latest diagnoses, visit count, and the
// last visit date.
func (s *Service) Summarize(ctx context.Context, ident *auth.Identity, userID uuid.UUID) (*Summary, error) {
	if err := checkReadAccess(ident, userID); err != nil {
		return nil, err
	}
	records, err := s.repo.Recent(ctx, userID, summaryWindow)
	if err != nil {
		return nil, fmt.Errorf("load recent history: %w", err)
	}

	sum := &Summary{
		UserID:          userID,
		Allergies:       []string{},
		RecentDiagnoses: []string{},
		TotalVisits:     len(records),
	}
	if len(records) > 0 {
		sum.LastVisit = &records[0].VisitDate
	}

	seen := map[string]bool{}
	for _, rec := range records {
		for _, allergy := range rec.Allergies {
			key := strings.ToLower(strings.TrimSpace(allergy))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			sum.Allergies = append(sum.Allergies, strings.TrimSpace(allergy))
		}
		if rec.Diagnosis != "" && len(sum.RecentDiagnoses) < maxRecentDiagnoses {
			sum.RecentDiagnoses = append(sum.RecentDiagnoses, rec.Diagnosis)
		}
	}
	return sum, nil
}

// Update rewrites the mutable fields of a record. Only the authoring
// doctor or an admin may change it.
func (s *Service) Update(ctx context.Context, ident *auth.Identity, id uuid.UUID, in Input) (*Record, error) {
	if !ident.IsAdmin() && ident.DoctorID == nil {
		return nil, ErrNoDoctorProfile
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkWriteAccess(ident, rec); err != nil {
		return nil, err
	}

	if !in.VisitDate.IsZero() {
		rec.VisitDate = in.VisitDate
	}
	if in.Diagnosis != "" {
		rec.Diagnosis = in.Diagnosis
	}
	if in.Symptoms != nil {
		rec.Symptoms = in.Symptoms
	}
	if in.Prescription != "" {
		rec.Prescription = in.Prescription
	}
	if in.Medicines != nil {
		rec.Medicines = in.Medicines
	}
	if in.Notes != "" {
		rec.Notes = in.Notes
	}
	if in.Vitals != (Vitals{}) {
		rec.Vitals = in.Vitals
	}
	if in.Allergies != nil {
		rec.Allergies = in.Allergies
	}
	if in.FollowUpDate != nil {
		rec.FollowUpDate = in.FollowUpDate
	}
	if in.FollowUpNotes != "" {
		rec.FollowUpNotes = in.FollowUpNotes
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update medical history: %w", err)
	}
	return rec, nil
}

// Delete removes a record. Same ownership rule as Update.
func (s *Service) Delete(ctx context.Context, ident *auth.Identity, id uuid.UUID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkWriteAccess(ident, rec); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// checkReadAccess allows doctors and admins to read anyone's history; a
// patient only their own.
func checkReadAccess(ident *auth.Identity, userID uuid.UUID) error {
	if ident.IsAdmin() || ident.IsDoctor() {
		return nil
	}
	if ident.UserID != userID {
		return ErrNotYours
	}
	return nil
}

// checkWriteAccess restricts mutation to the authoring doctor or an admin.
func checkWriteAccess(ident *auth.Identity, rec *Record) error {
	if ident.IsAdmin() {
		return nil
	}
	if ident.DoctorID != nil && *ident.DoctorID == rec.DoctorID {
		return nil
	}
	return ErrNotAuthor
}
