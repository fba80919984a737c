package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const doctorColumns = `id, name, specialty, description, experience_years, consultation_fee,
	department_id, email, phone, image, available, created_at, updated_at`

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (
			id, name, specialty, description, experience_years, consultation_fee,
			department_id, email, phone, image, available
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Name, d.Specialty, d.Description, d.ExperienceYears, d.ConsultationFee,
		d.DepartmentID, d.Email, d.Phone, d.Image, d.Available,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE doctors SET
			name = $2, specialty = $3, description = $4, experience_years = $5,
			consultation_fee = $6, department_id = $7, email = $8, phone = $9,
			image = $10, available = $11, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Specialty, d.Description, d.ExperienceYears,
		d.ConsultationFee, d.DepartmentID, d.Email, d.Phone,
		d.Image, d.Available,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, filters map[string]string, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM doctors WHERE 1=1`
	var args []interface{}
	idx := 1

	if dept, ok := filters["department_id"]; ok {
		clause := fmt.Sprintf(` AND department_id = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, dept)
		idx++
	}
	if specialty, ok := filters["specialty"]; ok {
		clause := fmt.Sprintf(` AND specialty ILIKE $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, specialty)
		idx++
	}
	if available, ok := filters["available"]; ok {
		clause := fmt.Sprintf(` AND available = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, available == "true")
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		d, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, d)
	}
	return doctors, total, rows.Err()
}

func (r *repoPG) scan(row pgx.Row) (*Doctor, error) {
	d := &Doctor{}
	err := row.Scan(
		&d.ID, &d.Name, &d.Specialty, &d.Description, &d.ExperienceYears, &d.ConsultationFee,
		&d.DepartmentID, &d.Email, &d.Phone, &d.Image, &d.Available, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}
