package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. An appointment is created as booked, confirmed by
// staff, and ends in one of the terminal states.
const (
	StatusBooked    = "booked"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// ValidStatuses holds every recognized appointment status.
var ValidStatuses = map[string]bool{
	StatusBooked:    true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// terminalStatuses are states that reject cancel and reschedule. Completing
// a mislabeled no-show is still possible through the staff transitions.
var terminalStatuses = map[string]bool{
	StatusCancelled: true,
	StatusCompleted: true,
	StatusNoShow:    true,
}

// IsTerminal reports whether the status rejects cancel and reschedule.
func IsTerminal(status string) bool { return terminalStatuses[status] }

// activeStatuses are the states that occupy a doctor's slot.
var activeStatuses = map[string]bool{
	StatusBooked:    true,
	StatusConfirmed: true,
}

// IsActive reports whether an appointment in this status blocks its slot.
func IsActive(status string) bool { return activeStatuses[status] }

// RescheduledFrom records the single previous date and time of a rescheduled
// appointment. Only the most recent origin is kept.
type RescheduledFrom struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Appointment maps to the appointments table. AppointmentTime is a canonical
// "HH:MM" grid mark, AppointmentDate a calendar date with no time component.
type Appointment struct {
	ID              uuid.UUID        `db:"id" json:"id"`
	PatientID       uuid.UUID        `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID        `db:"doctor_id" json:"doctor_id"`
	DepartmentID    uuid.UUID        `db:"department_id" json:"department_id"`
	ServiceID       *uuid.UUID       `db:"service_id" json:"service_id,omitempty"`
	RoomID          *uuid.UUID       `db:"room_id" json:"room_id,omitempty"`
	AppointmentDate time.Time        `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string           `db:"appointment_time" json:"appointment_time"`
	Status          string           `db:"status" json:"status"`
	Symptoms        *string          `db:"symptoms" json:"symptoms,omitempty"`
	Reason          *string          `db:"reason" json:"reason,omitempty"`
	Notes           *string          `db:"notes" json:"notes,omitempty"`
	EstimatedFee    float64          `db:"estimated_fee" json:"estimated_fee"`
	RescheduledFrom *RescheduledFrom `db:"rescheduled_from" json:"rescheduled_from,omitempty"`

	CancellationReason *string    `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Slot is one entry of a doctor's daily availability. Room carries the
// suggested consultation room for open slots.
type Slot struct {
	Time      string     `json:"time"`
	Available bool       `json:"available"`
	RoomID    *uuid.UUID `json:"room_id,omitempty"`
}

// MedicalRecord maps to the medical_records table. One record per completed
// consultation, written by the appointment's doctor.
type MedicalRecord struct {
	ID            uuid.UUID              `db:"id" json:"id"`
	AppointmentID uuid.UUID              `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID              `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID              `db:"doctor_id" json:"doctor_id"`
	Diagnosis     string                 `db:"diagnosis" json:"diagnosis"`
	Prescription  *string                `db:"prescription" json:"prescription,omitempty"`
	TreatmentPlan *string                `db:"treatment_plan" json:"treatment_plan,omitempty"`
	VitalSigns    map[string]interface{} `db:"vital_signs" json:"vital_signs,omitempty"`
	FollowUpDate  *time.Time             `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time              `db:"updated_at" json:"updated_at"`
}

// The working day runs 08:00 to 17:00 with 30-minute consultations, so the
// last slot starts at 16:30.
const (
	dayStartHour = 8
	dayEndHour   = 17
	slotMinutes  = 30
	SlotsPerDay  = 18
)

var timeGrid = buildTimeGrid()

func buildTimeGrid() []string {
	grid := make([]string, 0, SlotsPerDay)
	for hour := dayStartHour; hour < dayEndHour; hour++ {
		for _, min := range []int{0, slotMinutes} {
			grid = append(grid, fmt.Sprintf("%02d:%02d", hour, min))
		}
	}
	return grid
}

// TimeGrid returns the full list of canonical slot times for a working day.
// The returned slice is a copy; callers may modify it.
func TimeGrid() []string {
	grid := make([]string, len(timeGrid))
	copy(grid, timeGrid)
	return grid
}

// IsCanonicalSlot reports whether t is exactly one of the grid marks.
func IsCanonicalSlot(t string) bool {
	for _, mark := range timeGrid {
		if t == mark {
			return true
		}
	}
	return false
}

// NormalizeSlot canonicalizes a client-supplied time string. "HH:MM:SS" is
// accepted and truncated to "HH:MM". Anything off the grid is rejected.
func NormalizeSlot(t string) (string, error) {
	if len(t) == 8 && t[5] == ':' {
		t = t[:5]
	}
	if !IsCanonicalSlot(t) {
		return "", fmt.Errorf("time %q is not a valid slot", t)
	}
	return t, nil
}

// SlotStart combines an appointment date and grid time into one moment, in
// the given location.
func SlotStart(date time.Time, slot string, loc *time.Location) time.Time {
	var hour, min int
	fmt.Sscanf(slot, "%d:%d", &hour, &min)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc)
}
