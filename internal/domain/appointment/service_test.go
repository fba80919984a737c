package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/medibook/medibook/internal/platform/auth"
)

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
	getErr       error
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(ctx context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return m.filtered(func(a *Appointment) bool {
		return a.UserID == userID && (status == "" || a.Status == status)
	})
}

func (m *mockRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return m.filtered(func(a *Appointment) bool {
		return a.DoctorID == doctorID && (status == "" || a.Status == status)
	})
}

func (m *mockRepo) List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	return m.filtered(func(a *Appointment) bool {
		return status == "" || a.Status == status
	})
}

func (m *mockRepo) filtered(keep func(*Appointment) bool) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appointments {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type mockDirectory struct {
	doctors map[uuid.UUID]*DoctorInfo
}

func (m *mockDirectory) DoctorInfo(ctx context.Context, id uuid.UUID) (*DoctorInfo, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

type mockNotifier struct {
	events []Event
	err    error
}

func (m *mockNotifier) Notify(ctx context.Context, ev Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	notifier *mockNotifier
	doctorID uuid.UUID
	patient  *auth.Identity
	doctor   *auth.Identity
	admin    *auth.Identity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	doctorID := uuid.New()
	dir := &mockDirectory{doctors: map[uuid.UUID]*DoctorInfo{
		doctorID: {ID: doctorID, Name: "Dr. Hart", Fee: 200, Available: true},
	}}
	notifier := &mockNotifier{}
	svc := NewService(repo, dir, notifier, zerolog.Nop())

	return &fixture{
		svc:      svc,
		repo:     repo,
		notifier: notifier,
		doctorID: doctorID,
		patient:  &auth.Identity{UserID: uuid.New(), Role: auth.RoleUser},
		doctor:   &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &doctorID},
		admin:    &auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin},
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), f.patient, CreateInput{
		DoctorID: f.doctorID,
		Date:     time.Now().Add(48 * time.Hour),
		Reason:   "checkup",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestCreateAppointmentDefaults(t *testing.T) {
	f := setup(t)

	a := f.book(t)
	if a.Status != StatusPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if a.Price != 200 {
		t.Errorf("price = %v, want doctor's fee 200", a.Price)
	}
	if a.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("duration = %d, want %d", a.DurationMinutes, DefaultDurationMinutes)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Type != EventCreated {
		t.Errorf("events = %+v, want one appointment_created", f.notifier.events)
	}
}

func TestCreateAppointmentFeeFallback(t *testing.T) {
	f := setup(t)
	freeDoc := uuid.New()
	f.svc.doctors.(*mockDirectory).doctors[freeDoc] = &DoctorInfo{ID: freeDoc, Name: "Dr. Free", Fee: 0, Available: true}

	a, err := f.svc.Create(context.Background(), f.patient, CreateInput{
		DoctorID: freeDoc,
		Date:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.Price != DefaultPrice {
		t.Errorf("price = %v, want default %v", a.Price, DefaultPrice)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.patient, CreateInput{Date: time.Now().Add(time.Hour)}); err == nil {
		t.Error("missing doctor should fail")
	}
	if _, err := f.svc.Create(ctx, f.patient, CreateInput{DoctorID: f.doctorID}); err == nil {
		t.Error("missing date should fail")
	}
	if _, err := f.svc.Create(ctx, f.patient, CreateInput{DoctorID: f.doctorID, Date: time.Now().Add(-time.Hour)}); err == nil {
		t.Error("past date should fail")
	}
	if _, err := f.svc.Create(ctx, f.patient, CreateInput{DoctorID: uuid.New(), Date: time.Now().Add(time.Hour)}); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("unknown doctor err = %v, want ErrDoctorNotFound", err)
	}
}

func TestCreateAppointmentUnavailableDoctor(t *testing.T) {
	f := setup(t)
	f.svc.doctors.(*mockDirectory).doctors[f.doctorID].Available = false

	_, err := f.svc.Create(context.Background(), f.patient, CreateInput{
		DoctorID: f.doctorID,
		Date:     time.Now().Add(time.Hour),
	})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Errorf("err = %v, want ErrDoctorUnavailable", err)
	}
}

func TestTransitionEdges(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusConfirmed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTransitionByAssignedDoctor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	confirmed, err := f.svc.Transition(ctx, f.doctor, a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", confirmed.Status)
	}

	completed, err := f.svc.Transition(ctx, f.doctor, a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}

	types := []string{}
	for _, ev := range f.notifier.events {
		types = append(types, ev.Type)
	}
	want := []string{EventCreated, EventConfirmed, EventCompleted}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestTransitionByOtherDoctorLeavesStateUnchanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	otherDoctor := uuid.New()
	intruder := &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &otherDoctor}

	_, err := f.svc.Transition(ctx, intruder, a.ID, StatusConfirmed)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}

	stored, err := f.repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != StatusPending {
		t.Errorf("status changed to %q after a forbidden transition", stored.Status)
	}
}

func TestTransitionIllegalEdge(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	_, err := f.svc.Transition(ctx, f.doctor, a.ID, StatusCompleted)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("pending→completed err = %v, want ErrIllegalTransition", err)
	}

	stored, _ := f.repo.GetByID(ctx, a.ID)
	if stored.Status != StatusPending {
		t.Errorf("status = %q, want pending unchanged", stored.Status)
	}
}

func TestAdminTransition(t *testing.T) {
	f := setup(t)
	a := f.book(t)

	confirmed, err := f.svc.Transition(context.Background(), f.admin, a.ID, StatusConfirmed)
	if err != nil {
		t.Fatalf("admin transition: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %q", confirmed.Status)
	}
}

func TestCancelOwn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	cancelled, err := f.svc.CancelOwn(ctx, f.patient, a.ID)
	if err != nil {
		t.Fatalf("CancelOwn failed: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	last := f.notifier.events[len(f.notifier.events)-1]
	if last.Type != EventCancelled {
		t.Errorf("last event = %s, want appointment_cancelled", last.Type)
	}
}

func TestCancelOwnRejectsNonOwner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	stranger := &auth.Identity{UserID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.CancelOwn(ctx, stranger, a.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}

	stored, _ := f.repo.GetByID(ctx, a.ID)
	if stored.Status != StatusPending {
		t.Errorf("status = %q, want pending unchanged", stored.Status)
	}
}

func TestCancelOwnRejectsPastAndTerminal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	past := f.book(t)
	f.svc.now = func() time.Time { return past.Date.Add(time.Hour) }
	if _, err := f.svc.CancelOwn(ctx, f.patient, past.ID); !errors.Is(err, ErrCannotCancel) {
		t.Errorf("past appointment err = %v, want ErrCannotCancel", err)
	}
	f.svc.now = time.Now

	done := f.book(t)
	if _, err := f.svc.Transition(ctx, f.doctor, done.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.Transition(ctx, f.doctor, done.ID, StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.CancelOwn(ctx, f.patient, done.ID); !errors.Is(err, ErrCannotCancel) {
		t.Errorf("completed appointment err = %v, want ErrCannotCancel", err)
	}
}

func TestNotifierFailureDoesNotFailMutation(t *testing.T) {
	f := setup(t)
	f.notifier.err = errors.New("notification store down")

	a, err := f.svc.Create(context.Background(), f.patient, CreateInput{
		DoctorID: f.doctorID,
		Date:     time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed because of the notifier: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("status = %q", a.Status)
	}
}

func TestListForDoctorRequiresProfile(t *testing.T) {
	f := setup(t)

	unlinked := &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor}
	if _, _, err := f.svc.ListForDoctor(context.Background(), unlinked, "", 20, 0); !errors.Is(err, ErrNoDoctorProfile) {
		t.Errorf("err = %v, want ErrNoDoctorProfile", err)
	}
}

func TestGetVisibility(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.book(t)

	if _, err := f.svc.Get(ctx, f.patient, a.ID); err != nil {
		t.Errorf("owner should see their appointment: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.doctor, a.ID); err != nil {
		t.Errorf("assigned doctor should see the appointment: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.admin, a.ID); err != nil {
		t.Errorf("admin should see the appointment: %v", err)
	}

	stranger := &auth.Identity{UserID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.Get(ctx, stranger, a.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("stranger err = %v, want ErrNotOwner", err)
	}
}
