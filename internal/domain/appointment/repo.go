package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)

	// OccupiedTimes returns the grid times held by active appointments for
	// the doctor on the given date.
	OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)

	// SlotTaken reports whether an active appointment other than excludeID
	// holds the doctor's slot. Pass uuid.Nil to exclude nothing.
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date time.Time, timeSlot string, excludeID uuid.UUID) (bool, error)
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, r *MedicalRecord) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
}
