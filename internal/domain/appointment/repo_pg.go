package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// =========== Appointment Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, department_id, service_id, room_id,
	appointment_date, appointment_time, status, symptoms, reason, notes, estimated_fee,
	rescheduled_from, cancellation_reason, cancelled_at, created_at, updated_at`

func (r *repoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DepartmentID, &a.ServiceID, &a.RoomID,
		&a.AppointmentDate, &a.AppointmentTime, &a.Status, &a.Symptoms, &a.Reason, &a.Notes, &a.EstimatedFee,
		&a.RescheduledFrom, &a.CancellationReason, &a.CancelledAt, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

// isSlotUniqueViolation detects the partial unique index on active
// appointments per doctor, date and time.
func isSlotUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, department_id, service_id, room_id,
			appointment_date, appointment_time, status, symptoms, reason, notes, estimated_fee, rescheduled_from)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		a.ID, a.PatientID, a.DoctorID, a.DepartmentID, a.ServiceID, a.RoomID,
		a.AppointmentDate, a.AppointmentTime, a.Status, a.Symptoms, a.Reason, a.Notes, a.EstimatedFee, a.RescheduledFrom)
	if isSlotUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundErr("appointment not found")
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET service_id=$2, room_id=$3, appointment_date=$4, appointment_time=$5,
			status=$6, symptoms=$7, reason=$8, notes=$9, estimated_fee=$10, rescheduled_from=$11,
			cancellation_reason=$12, cancelled_at=$13, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ServiceID, a.RoomID, a.AppointmentDate, a.AppointmentTime,
		a.Status, a.Symptoms, a.Reason, a.Notes, a.EstimatedFee, a.RescheduledFrom,
		a.CancellationReason, a.CancelledAt)
	if isSlotUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["patient"]; ok {
		query += fmt.Sprintf(` AND patient_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["doctor"]; ok {
		query += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND doctor_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["department"]; ok {
		query += fmt.Sprintf(` AND department_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND department_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["date"]; ok {
		query += fmt.Sprintf(` AND appointment_date = $%d`, idx)
		countQuery += fmt.Sprintf(` AND appointment_date = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY appointment_date DESC, appointment_time DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

func (r *repoPG) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT appointment_time FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status IN ('booked','confirmed')
		ORDER BY appointment_time ASC`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *repoPG) SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, excludeID uuid.UUID) (bool, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3
			AND status IN ('booked','confirmed') AND id <> $4`,
		doctorID, date, timeSlot, excludeID).Scan(&count)
	return count > 0, err
}

// =========== Medical Record Repository ===========

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewMedicalRecordRepoPG(pool *pgxpool.Pool) MedicalRecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, appointment_id, patient_id, doctor_id, diagnosis, prescription,
	treatment_plan, vital_signs, follow_up_date, created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.AppointmentID, &m.PatientID, &m.DoctorID, &m.Diagnosis,
		&m.Prescription, &m.TreatmentPlan, &m.VitalSigns, &m.FollowUpDate,
		&m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (id, appointment_id, patient_id, doctor_id, diagnosis,
			prescription, treatment_plan, vital_signs, follow_up_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.AppointmentID, m.PatientID, m.DoctorID, m.Diagnosis,
		m.Prescription, m.TreatmentPlan, m.VitalSigns, m.FollowUpDate)
	return err
}

func (r *recordRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalRecord, error) {
	m, err := r.scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE appointment_id = $1`, appointmentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundErr("medical record not found")
	}
	return m, err
}

func (r *recordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records SET diagnosis=$2, prescription=$3, treatment_plan=$4,
			vital_signs=$5, follow_up_date=$6, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Diagnosis, m.Prescription, m.TreatmentPlan, m.VitalSigns, m.FollowUpDate)
	return err
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM medical_records WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalRecord
	for rows.Next() {
		m, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}
