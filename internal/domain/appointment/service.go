package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/auth"
	"github.com/medibook/medibook/internal/platform/db"
)

var (
	ErrNotOwner          = errors.New("appointment does not belong to you")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrCannotCancel      = errors.New("appointment can no longer be cancelled")
	ErrDoctorUnavailable = errors.New("doctor is not accepting appointments")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrNoDoctorProfile   = errors.New("no doctor profile linked to this account")
)

// Notification types emitted on lifecycle changes.
const (
	EventCreated   = "appointment_created"
	EventConfirmed = "appointment_confirmed"
	EventCancelled = "appointment_cancelled"
	EventCompleted = "appointment_completed"
)

// Event describes a lifecycle change handed to the notifier.
type Event struct {
	Type          string
	UserID        uuid.UUID
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	DoctorName    string
	Date          time.Time
}

// Notifier receives appointment lifecycle events. Delivery is best-effort:
// the service logs failures and the mutation still succeeds.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// DoctorInfo is what booking needs to know about a doctor.
type DoctorInfo struct {
	ID        uuid.UUID
	Name      string
	Fee       float64
	Available bool
}

// DoctorDirectory resolves doctors at booking time without coupling this
// package to the doctor domain.
type DoctorDirectory interface {
	DoctorInfo(ctx context.Context, id uuid.UUID) (*DoctorInfo, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, doctors: doctors, notifier: notifier, log: log, now: time.Now}
}

// CreateInput is the booking payload.
type CreateInput struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     time.Time `json:"date"`
	Reason   string    `json:"reason"`
}

// Create books an appointment for the calling patient. New appointments
// always start pending; the price comes from the doctor's consultation fee.
func (s *Service) Create(ctx context.Context, ident *auth.Identity, in CreateInput) (*Appointment, error) {
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if !in.Date.After(s.now()) {
		return nil, fmt.Errorf("date must be in the future")
	}

	doc, err := s.doctors.DoctorInfo(ctx, in.DoctorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	if !doc.Available {
		return nil, ErrDoctorUnavailable
	}

	a := &Appointment{
		UserID:          ident.UserID,
		DoctorID:        in.DoctorID,
		Date:            in.Date,
		Reason:          in.Reason,
		Status:          StatusPending,
		Price:           doc.Fee,
		DurationMinutes: DefaultDurationMinutes,
	}
	if a.Price <= 0 {
		a.Price = DefaultPrice
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.emit(ctx, EventCreated, a, doc.Name)
	return a, nil
}

// Get returns an appointment visible to the caller: the booking patient, the
// assigned doctor, or an admin.
func (s *Service) Get(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(ident, a) {
		return nil, ErrNotOwner
	}
	return a, nil
}

// ListOwn returns the caller's own patient-side bookings, newest first.
func (s *Service) ListOwn(ctx context.Context, ident *auth.Identity, status string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByUser(ctx, ident.UserID, status, limit, offset)
}

// ListForDoctor returns the queue of the doctor linked to the caller.
func (s *Service) ListForDoctor(ctx context.Context, ident *auth.Identity, status string, limit, offset int) ([]*Appointment, int, error) {
	if ident.DoctorID == nil {
		return nil, 0, ErrNoDoctorProfile
	}
	return s.repo.ListByDoctor(ctx, *ident.DoctorID, status, limit, offset)
}

// ListAll returns every appointment. Admin surface.
func (s *Service) ListAll(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// CancelOwn lets a patient cancel their own upcoming appointment. Past and
// terminal appointments stay as they are.
func (s *Service) CancelOwn(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != ident.UserID && !ident.IsAdmin() {
		return nil, ErrNotOwner
	}
	if a.IsTerminal() || a.Date.Before(s.now()) {
		return nil, ErrCannotCancel
	}

	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.emit(ctx, EventCancelled, a, "")
	return a, nil
}

// Transition moves an appointment along a legal status edge. Only the
// assigned doctor or an admin may do this; an illegal edge leaves the
// appointment untouched.
func (s *Service) Transition(ctx context.Context, ident *auth.Identity, id uuid.UUID, target string) (*Appointment, error) {
	if !ValidStatus(target) {
		return nil, fmt.Errorf("unknown status %q", target)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && (ident.DoctorID == nil || *ident.DoctorID != a.DoctorID) {
		return nil, ErrNotOwner
	}
	if !CanTransition(a.Status, target) {
		return nil, ErrIllegalTransition
	}

	a.Status = target
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	switch target {
	case StatusConfirmed:
		s.emit(ctx, EventConfirmed, a, "")
	case StatusCancelled:
		s.emit(ctx, EventCancelled, a, "")
	case StatusCompleted:
		s.emit(ctx, EventCompleted, a, "")
	}
	return a, nil
}

func canSee(ident *auth.Identity, a *Appointment) bool {
	if ident.IsAdmin() || a.UserID == ident.UserID {
		return true
	}
	return ident.DoctorID != nil && *ident.DoctorID == a.DoctorID
}

func (s *Service) emit(ctx context.Context, event string, a *Appointment, doctorName string) {
	if s.notifier == nil {
		return
	}
	if doctorName == "" {
		if doc, err := s.doctors.DoctorInfo(ctx, a.DoctorID); err == nil {
			doctorName = doc.Name
		}
	}
	ev := Event{
		Type:          event,
		UserID:        a.UserID,
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		DoctorName:    doctorName,
		Date:          a.Date,
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event", event).
			Str("appointment_id", a.ID.String()).
			Msg("notification delivery failed")
	}
}
