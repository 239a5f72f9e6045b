package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thien1805/MyHealthCare/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userCols = `id, email, full_name, phone, role, active, created_at, updated_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role, &u.Active,
		&u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

const profileCols = `user_id, department_id, room_id, specialization, license_number, biography, created_at, updated_at`

func (r *userRepoPG) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	var p DoctorProfile
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+profileCols+` FROM doctor_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DepartmentID, &p.RoomID, &p.Specialization, &p.LicenseNumber,
			&p.Biography, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const doctorCols = `u.id, u.email, u.full_name, u.phone, u.role, u.active, u.created_at, u.updated_at,
	p.user_id, p.department_id, p.room_id, p.specialization, p.license_number, p.biography, p.created_at, p.updated_at`

func (r *userRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Email, &d.FullName, &d.Phone, &d.Role, &d.Active,
		&d.CreatedAt, &d.UpdatedAt,
		&d.Profile.UserID, &d.Profile.DepartmentID, &d.Profile.RoomID,
		&d.Profile.Specialization, &d.Profile.LicenseNumber, &d.Profile.Biography,
		&d.Profile.CreatedAt, &d.Profile.UpdatedAt)
	return &d, err
}

func (r *userRepoPG) ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = 'doctor' AND u.active AND p.department_id = $1`, departmentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = 'doctor' AND u.active AND p.department_id = $1
		ORDER BY u.full_name ASC LIMIT $2 OFFSET $3`, departmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *userRepoPG) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = 'doctor' AND u.active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM users u
		JOIN doctor_profiles p ON p.user_id = u.id
		WHERE u.role = 'doctor' AND u.active
		ORDER BY u.full_name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}
