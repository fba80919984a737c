package medicalhistory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medibook/medibook/internal/platform/auth"
)

type mockRepo struct {
	records map[uuid.UUID]*Record
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRepo) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Record, error) {
	for _, rec := range m.records {
		if rec.AppointmentID == appointmentID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) byUserNewestFirst(userID uuid.UUID) []*Record {
	var out []*Record
	for _, rec := range m.records {
		if rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate) })
	return out
}

func (m *mockRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	out := m.byUserNewestFirst(userID)
	return out, len(out), nil
}

func (m *mockRepo) Recent(ctx context.Context, userID uuid.UUID, n int) ([]*Record, error) {
	out := m.byUserNewestFirst(userID)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *mockRepo) Update(ctx context.Context, rec *Record) error {
	if _, ok := m.records[rec.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

func identities() (doctor, patient, admin *auth.Identity, patientID uuid.UUID) {
	doctorProfile := uuid.New()
	patientID = uuid.New()
	doctor = &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &doctorProfile}
	patient = &auth.Identity{UserID: patientID, Role: auth.RoleUser}
	admin = &auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}
	return
}

func visitInput(userID uuid.UUID, daysAgo int, diagnosis string, allergies ...string) Input {
	return Input{
		UserID:        userID,
		AppointmentID: uuid.New(),
		VisitDate:     time.Now().AddDate(0, 0, -daysAgo),
		Diagnosis:     diagnosis,
		Allergies:     allergies,
	}
}

func TestCreateRecord(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, _, _, patientID := identities()

	rec, err := svc.Create(context.Background(), doctor, visitInput(patientID, 0, "Hypertension"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.DoctorID != *doctor.DoctorID {
		t.Errorf("doctor_id = %s, want the caller's profile %s", rec.DoctorID, *doctor.DoctorID)
	}
	if rec.VisitDate.IsZero() {
		t.Error("visit date should be set")
	}
}

func TestCreateRecordValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, _, _, patientID := identities()
	ctx := context.Background()

	if _, err := svc.Create(ctx, doctor, Input{AppointmentID: uuid.New(), Diagnosis: "x"}); err == nil {
		t.Error("missing user_id should fail")
	}
	if _, err := svc.Create(ctx, doctor, Input{UserID: patientID, Diagnosis: "x"}); err == nil {
		t.Error("missing appointment_id should fail")
	}
	if _, err := svc.Create(ctx, doctor, Input{UserID: patientID, AppointmentID: uuid.New()}); err == nil {
		t.Error("missing diagnosis should fail")
	}

	unlinked := &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor}
	if _, err := svc.Create(ctx, unlinked, visitInput(patientID, 0, "x")); !errors.Is(err, ErrNoDoctorProfile) {
		t.Errorf("unlinked doctor err = %v, want ErrNoDoctorProfile", err)
	}
}

func TestListByUserAccess(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, patient, admin, patientID := identities()
	ctx := context.Background()

	if _, err := svc.Create(ctx, doctor, visitInput(patientID, 1, "Flu")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := svc.ListByUser(ctx, patient, patientID, 20, 0); err != nil {
		t.Errorf("patient reading own history: %v", err)
	}
	if _, _, err := svc.ListByUser(ctx, doctor, patientID, 20, 0); err != nil {
		t.Errorf("doctor reading history: %v", err)
	}
	if _, _, err := svc.ListByUser(ctx, admin, patientID, 20, 0); err != nil {
		t.Errorf("admin reading history: %v", err)
	}

	other := &auth.Identity{UserID: uuid.New(), Role: auth.RoleUser}
	if _, _, err := svc.ListByUser(ctx, other, patientID, 20, 0); !errors.Is(err, ErrNotYours) {
		t.Errorf("other patient err = %v, want ErrNotYours", err)
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, patient, _, patientID := identities()
	ctx := context.Background()

	for i, diag := range []string{"Oldest", "Middle", "Newest"} {
		if _, err := svc.Create(ctx, doctor, visitInput(patientID, 10-i, diag)); err != nil {
			t.Fatalf("seed %s: %v", diag, err)
		}
	}

	records, total, err := svc.ListByUser(ctx, patient, patientID, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if records[0].Diagnosis != "Newest" || records[2].Diagnosis != "Oldest" {
		t.Errorf("wrong order: %s ... %s", records[0].Diagnosis, records[2].Diagnosis)
	}
}

func TestSummarize(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, patient, _, patientID := identities()
	ctx := context.Background()

	seeds := []Input{
		visitInput(patientID, 30, "Seasonal allergy", "Pollen", "Penicillin"),
		visitInput(patientID, 10, "Bronchitis", "penicillin"),
		visitInput(patientID, 2, "Hypertension", "Dust"),
	}
	for _, in := range seeds {
		if _, err := svc.Create(ctx, doctor, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	sum, err := svc.Summarize(ctx, patient, patientID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.TotalVisits != 3 {
		t.Errorf("total_visits = %d, want 3", sum.TotalVisits)
	}
	// "Penicillin" and "penicillin" collapse to one entry.
	if len(sum.Allergies) != 3 {
		t.Errorf("allergies = %v, want 3 deduplicated entries", sum.Allergies)
	}
	if sum.RecentDiagnoses[0] != "Hypertension" {
		t.Errorf("recent diagnoses start with %q, want the newest", sum.RecentDiagnoses[0])
	}
	if sum.LastVisit == nil {
		t.Fatal("last_visit missing")
	}
}

func TestSummarizeWindowCap(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, patient, _, patientID := identities()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.Create(ctx, doctor, visitInput(patientID, i, "Visit")); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	sum, err := svc.Summarize(ctx, patient, patientID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.TotalVisits != summaryWindow {
		t.Errorf("total_visits = %d, want capped at %d", sum.TotalVisits, summaryWindow)
	}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	svc := NewService(newMockRepo())
	_, patient, _, patientID := identities()

	sum, err := svc.Summarize(context.Background(), patient, patientID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.TotalVisits != 0 || sum.LastVisit != nil {
		t.Errorf("empty summary: %+v", sum)
	}
	if sum.Allergies == nil || sum.RecentDiagnoses == nil {
		t.Error("summary slices should be empty, not null")
	}
}

func TestUpdateRecord(t *testing.T) {
	svc := NewService(newMockRepo())
	doctor, _, _, patientID := identities()
	ctx := context.Background()

	rec, err := svc.Create(ctx, doctor, visitInput(patientID, 1, "Flu"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	updated, err := svc.Update(ctx, doctor, rec.ID, Input{
		Diagnosis: "Influenza A",
		Medicines: []Medicine{{Name: "Oseltamivir", Dosage: "75mg", Duration: "5 days", Frequency: "twice daily"}},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Diagnosis != "Influenza A" {
		t.Errorf("diagnosis = %q", updated.Diagnosis)
	}
	if len(updated.Medicines) != 1 || updated.Medicines[0].Name != "Oseltamivir" {
		t.Errorf("medicines = %+v", updated.Medicines)
	}
}

func TestUpdateRecordAuthorOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	author, _, admin, patientID := identities()
	ctx := context.Background()

	rec, err := svc.Create(ctx, author, visitInput(patientID, 1, "Flu"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	otherProfile := uuid.New()
	other := &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &otherProfile}
	if _, err := svc.Update(ctx, other, rec.ID, Input{Diagnosis: "Rewritten"}); !errors.Is(err, ErrNotAuthor) {
		t.Errorf("foreign doctor update err = %v, want ErrNotAuthor", err)
	}
	stored, _ := repo.GetByID(ctx, rec.ID)
	if stored.Diagnosis != "Flu" {
		t.Errorf("diagnosis = %q, want unchanged after forbidden update", stored.Diagnosis)
	}

	if _, err := svc.Update(ctx, admin, rec.ID, Input{Diagnosis: "Amended"}); err != nil {
		t.Errorf("admin update failed: %v", err)
	}
}

func TestDeleteRecordAuthorOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	author, _, _, patientID := identities()
	ctx := context.Background()

	rec, err := svc.Create(ctx, author, visitInput(patientID, 1, "Flu"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	otherProfile := uuid.New()
	other := &auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &otherProfile}
	if err := svc.Delete(ctx, other, rec.ID); !errors.Is(err, ErrNotAuthor) {
		t.Errorf("foreign doctor delete err = %v, want ErrNotAuthor", err)
	}
	if _, err := repo.GetByID(ctx, rec.ID); err != nil {
		t.Error("record should survive a forbidden delete")
	}

	if err := svc.Delete(ctx, author, rec.ID); err != nil {
		t.Errorf("author delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, rec.ID); err == nil {
		t.Error("record should be gone after the author deletes it")
	}
}
