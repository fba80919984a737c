package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// AppointmentEventInput describes an appointment lifecycle change to be
// turned into a notification for the booking patient.
type AppointmentEventInput struct {
	Type          string
	UserID        uuid.UUID
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	DoctorName    string
	Date          time.Time
}

// RecordAppointmentEvent writes the notification for a lifecycle event.
func (s *Service) RecordAppointmentEvent(ctx context.Context, in AppointmentEventInput) (*Notification, error) {
	if !ValidType(in.Type) {
		return nil, fmt.Errorf("unknown notification type %q", in.Type)
	}

	title, message := composeMessage(in)
	n := &Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   title,
		Message: message,
		Data: Data{
			AppointmentID: in.AppointmentID,
			DoctorID:      in.DoctorID,
		},
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func composeMessage(in AppointmentEventInput) (title, message string) {
	doctor := in.DoctorName
	if doctor == "" {
		doctor = "your doctor"
	}
	when := in.Date.Format("Mon, 2 Jan 2006 15:04")

	switch in.Type {
	case TypeAppointmentCreated:
		return "Appointment booked",
			fmt.Sprintf("Your appointment with %s on %s has been booked and is awaiting confirmation.", doctor, when)
	case TypeAppointmentConfirmed:
		return "Appointment confirmed",
			fmt.Sprintf("Your appointment with %s on %s has been confirmed.", doctor, when)
	case TypeAppointmentCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Your appointment with %s on %s has been cancelled.", doctor, when)
	default:
		return "Appointment completed",
			fmt.Sprintf("Your appointment with %s on %s has been completed.", doctor, when)
	}
}

// List returns the caller's feed, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks the caller's whole feed read and returns how many
// notifications changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
