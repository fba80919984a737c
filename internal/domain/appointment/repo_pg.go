package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, user_id, doctor_id, date, reason, status, price,
	duration_minutes, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, user_id, doctor_id, date, reason, status, price, duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.DoctorID, a.Date, a.Reason, a.Status, a.Price, a.DurationMinutes,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments SET date = $2, reason = $3, status = $4, price = $5,
			duration_minutes = $6, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Date, a.Reason, a.Status, a.Price, a.DurationMinutes,
	)
	return err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `user_id = $1`, userID, status, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID, status, limit, offset)
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != "" {
		clause := fmt.Sprintf(` AND status = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, status)
		idx++
	}

	return r.query(ctx, query, countQuery, args, idx, limit, offset)
}

func (r *repoPG) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + ownerClause
	countQuery := `SELECT COUNT(*) FROM appointments WHERE ` + ownerClause
	args := []interface{}{ownerID}
	idx := 2

	if status != "" {
		clause := fmt.Sprintf(` AND status = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, status)
		idx++
	}

	return r.query(ctx, query, countQuery, args, idx, limit, offset)
}

func (r *repoPG) query(ctx context.Context, query, countQuery string, args []interface{}, idx, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		appointments = append(appointments, a)
	}
	return appointments, total, rows.Err()
}

func (r *repoPG) scan(row pgx.Row) (*Appointment, error) {
	a := &Appointment{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.DoctorID, &a.Date, &a.Reason, &a.Status, &a.Price,
		&a.DurationMinutes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
