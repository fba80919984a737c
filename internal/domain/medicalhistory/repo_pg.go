package medicalhistory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, user_id, doctor_id, appointment_id, visit_date, diagnosis,
	symptoms, prescription, medicines, notes, blood_pressure, temperature, weight,
	height, allergies, follow_up_date, follow_up_notes, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medical_history (
			id, user_id, doctor_id, appointment_id, visit_date, diagnosis,
			symptoms, prescription, medicines, notes, blood_pressure, temperature,
			weight, height, allergies, follow_up_date, follow_up_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		rec.ID, rec.UserID, rec.DoctorID, rec.AppointmentID, rec.VisitDate, rec.Diagnosis,
		rec.Symptoms, rec.Prescription, rec.Medicines, rec.Notes, rec.Vitals.BloodPressure,
		rec.Vitals.Temperature, rec.Vitals.Weight, rec.Vitals.Height, rec.Allergies,
		rec.FollowUpDate, rec.FollowUpNotes,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM medical_history WHERE id = $1`, id))
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Record, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM medical_history WHERE appointment_id = $1`, appointmentID))
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM medical_history
		 WHERE user_id = $1 ORDER BY visit_date DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *repoPG) Recent(ctx context.Context, userID uuid.UUID, n int) ([]*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM medical_history
		 WHERE user_id = $1 ORDER BY visit_date DESC LIMIT $2`,
		userID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medical_history SET
			visit_date = $2, diagnosis = $3, symptoms = $4, prescription = $5,
			medicines = $6, notes = $7, blood_pressure = $8, temperature = $9,
			weight = $10, height = $11, allergies = $12, follow_up_date = $13,
			follow_up_notes = $14, updated_at = NOW()
		WHERE id = $1`,
		rec.ID, rec.VisitDate, rec.Diagnosis, rec.Symptoms, rec.Prescription,
		rec.Medicines, rec.Notes, rec.Vitals.BloodPressure, rec.Vitals.Temperature,
		rec.Vitals.Weight, rec.Vitals.Height, rec.Allergies, rec.FollowUpDate,
		rec.FollowUpNotes,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medical_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) collect(rows pgx.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repoPG) scan(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.DoctorID, &rec.AppointmentID, &rec.VisitDate, &rec.Diagnosis,
		&rec.Symptoms, &rec.Prescription, &rec.Medicines, &rec.Notes, &rec.Vitals.BloodPressure,
		&rec.Vitals.Temperature, &rec.Vitals.Weight, &rec.Vitals.Height, &rec.Allergies,
		&rec.FollowUpDate, &rec.FollowUpNotes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
