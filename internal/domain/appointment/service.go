package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thien1805/MyHealthCare/internal/domain/catalog"
	"github.com/thien1805/MyHealthCare/internal/domain/identity"
)

// DoctorDirectory is the slice of the identity service the booking rules
// need. Satisfied by *identity.Service.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}

// CatalogReader is the slice of the catalog the booking rules need.
// Satisfied by *catalog.Catalog.
type CatalogReader interface {
	GetDepartment(ctx context.Context, id uuid.UUID) (*catalog.Department, error)
	GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*catalog.Room, error)
	FirstActiveRoom(ctx context.Context, departmentID uuid.UUID) (*catalog.Room, error)
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

type Service struct {
	repo    Repository
	records MedicalRecordRepository
	users   DoctorDirectory
	catalog CatalogReader

	bookingWindowDays int
	cancelNoticeHours int
	now               func() time.Time
}

func NewService(repo Repository, records MedicalRecordRepository, users DoctorDirectory, cat CatalogReader, bookingWindowDays, cancelNoticeHours int) *Service {
	return &Service{
		repo:              repo,
		records:           records,
		users:             users,
		catalog:           cat,
		bookingWindowDays: bookingWindowDays,
		cancelNoticeHours: cancelNoticeHours,
		now:               time.Now,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// validateDate checks that the date is neither in the past nor beyond the
// booking window.
func (s *Service) validateDate(date time.Time) error {
	today := dateOnly(s.now())
	d := dateOnly(date)
	if d.Before(today) {
		return validationErr("appointment date cannot be in the past")
	}
	if d.After(today.AddDate(0, 0, s.bookingWindowDays)) {
		return validationErr(fmt.Sprintf("appointments can only be booked up to %d days in advance", s.bookingWindowDays))
	}
	return nil
}

// AvailableSlots returns the full 18-mark grid for the doctor on the given
// date, tagging each mark with its occupancy. Open slots carry the room the
// booking would be assigned. The result is a pure function of the date and
// the doctor's active appointments. departmentID is optional; when given it
// must name an active department.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, departmentID *uuid.UUID) ([]Slot, error) {
	if err := s.validateDate(date); err != nil {
		return nil, err
	}
	doctor, err := s.users.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, notFoundErr("doctor not found")
	}
	if departmentID != nil {
		dept, err := s.catalog.GetDepartment(ctx, *departmentID)
		if err != nil {
			return nil, notFoundErr("department not found")
		}
		if !dept.Active {
			return nil, validationErr("department is not accepting appointments")
		}
	}
	occupied, err := s.repo.OccupiedTimes(ctx, doctorID, dateOnly(date))
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(occupied))
	for _, t := range occupied {
		if norm, err := NormalizeSlot(t); err == nil {
			taken[norm] = true
		}
	}
	roomID, err := s.assignRoom(ctx, doctor)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, SlotsPerDay)
	for _, mark := range TimeGrid() {
		slot := Slot{Time: mark, Available: !taken[mark]}
		if slot.Available {
			slot.RoomID = roomID
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// BookRequest carries the patient's booking parameters.
type BookRequest struct {
	DoctorID        uuid.UUID
	DepartmentID    uuid.UUID
	AppointmentDate time.Time
	AppointmentTime string
	Symptoms        *string
	Reason          *string
	Notes           *string
}

// Book creates a new appointment for the acting patient. The consultation
// fee is the department's examination fee; a specific service is attached
// later by the doctor. The room defaults to the doctor's own consultation
// room when it is active, otherwise the department's first active room.
func (s *Service) Book(ctx context.Context, actor Actor, req BookRequest) (*Appointment, error) {
	if actor.Role != identity.RolePatient {
		return nil, authorizationErr("only patients can book appointments")
	}

	doctor, err := s.users.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, notFoundErr("doctor not found")
	}
	dept, err := s.catalog.GetDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, notFoundErr("department not found")
	}
	if !dept.Active {
		return nil, validationErr("department is not accepting appointments")
	}
	if doctor.Profile.DepartmentID != req.DepartmentID {
		return nil, validationErr("doctor does not belong to the selected department")
	}

	slot, err := NormalizeSlot(req.AppointmentTime)
	if err != nil {
		return nil, validationErr(err.Error())
	}
	if err := s.validateDate(req.AppointmentDate); err != nil {
		return nil, err
	}

	taken, err := s.repo.SlotTaken(ctx, req.DoctorID, dateOnly(req.AppointmentDate), slot, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	roomID, err := s.assignRoom(ctx, doctor)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:       actor.ID,
		DoctorID:        req.DoctorID,
		DepartmentID:    req.DepartmentID,
		RoomID:          roomID,
		AppointmentDate: dateOnly(req.AppointmentDate),
		AppointmentTime: slot,
		Status:          StatusBooked,
		Symptoms:        req.Symptoms,
		Reason:          req.Reason,
		Notes:           req.Notes,
		EstimatedFee:    dept.HealthExaminationFee,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// assignRoom picks the doctor's own room when it is still active, falling
// back to the department's first active room. A nil result means the
// appointment starts without a room.
func (s *Service) assignRoom(ctx context.Context, doctor *identity.Doctor) (*uuid.UUID, error) {
	if doctor.Profile.RoomID != nil {
		room, err := s.catalog.GetRoom(ctx, *doctor.Profile.RoomID)
		if err == nil && room.Active {
			return &room.ID, nil
		}
	}
	room, err := s.catalog.FirstActiveRoom(ctx, doctor.Profile.DepartmentID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}
	return &room.ID, nil
}

// canManage reports whether the actor may modify the appointment: its
// patient, its doctor, or an admin.
func canManage(actor Actor, a *Appointment) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RolePatient:
		return a.PatientID == actor.ID
	case identity.RoleDoctor:
		return a.DoctorID == actor.ID
	}
	return false
}

// Cancel moves an appointment to cancelled. Patients and doctors must give
// at least the configured notice before the slot starts; admins can cancel
// at any time, including after the slot has passed.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason *string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, a) {
		return nil, authorizationErr("you are not allowed to cancel this appointment")
	}
	if IsTerminal(a.Status) {
		return nil, stateErr(fmt.Sprintf("a %s appointment cannot be cancelled", a.Status))
	}

	now := s.now()
	if actor.Role != identity.RoleAdmin {
		start := SlotStart(a.AppointmentDate, a.AppointmentTime, now.Location())
		if !start.After(now) {
			return nil, stateErr("the appointment has already passed")
		}
		notice := time.Duration(s.cancelNoticeHours) * time.Hour
		if start.Sub(now) < notice {
			return nil, conflictErr(fmt.Sprintf("appointments must be cancelled at least %d hours in advance", s.cancelNoticeHours))
		}
	}

	a.Status = StatusCancelled
	a.CancellationReason = reason
	a.CancelledAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves an appointment to a new date and time. The previous
// date and time are kept, one hop deep, and the status returns to booked so
// staff re-confirm the new slot.
func (s *Service) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, newDate time.Time, newTime string, reason *string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, a) {
		return nil, authorizationErr("you are not allowed to reschedule this appointment")
	}
	if IsTerminal(a.Status) {
		return nil, stateErr(fmt.Sprintf("a %s appointment cannot be rescheduled", a.Status))
	}

	slot, err := NormalizeSlot(newTime)
	if err != nil {
		return nil, validationErr(err.Error())
	}
	if err := s.validateDate(newDate); err != nil {
		return nil, err
	}

	taken, err := s.repo.SlotTaken(ctx, a.DoctorID, dateOnly(newDate), slot, a.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	a.RescheduledFrom = &RescheduledFrom{
		Date: a.AppointmentDate.Format("2006-01-02"),
		Time: a.AppointmentTime,
	}
	a.AppointmentDate = dateOnly(newDate)
	a.AppointmentTime = slot
	a.Status = StatusBooked
	if reason != nil && *reason != "" {
		appendNote(a, "Rescheduled: "+*reason)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AssignService attaches a department service to the appointment during or
// after the consultation and replaces the estimated fee with examination
// fee plus service price. Only the appointment's own doctor may do this;
// admins get no bypass here.
func (s *Service) AssignService(ctx context.Context, actor Actor, id, serviceID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleDoctor || a.DoctorID != actor.ID {
		return nil, authorizationErr("only the appointment's doctor can assign a service")
	}
	if a.Status != StatusConfirmed && a.Status != StatusCompleted {
		return nil, stateErr("a service can only be assigned to a confirmed or completed appointment")
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, notFoundErr("service not found")
	}
	if !svc.Active {
		return nil, validationErr("service is not available")
	}
	if svc.DepartmentID != a.DepartmentID {
		return nil, validationErr("service belongs to a different department")
	}

	dept, err := s.catalog.GetDepartment(ctx, a.DepartmentID)
	if err != nil {
		return nil, err
	}

	a.ServiceID = &svc.ID
	a.EstimatedFee = dept.HealthExaminationFee + svc.Price
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Confirm moves a booked appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, actor, id, StatusConfirmed, map[string]bool{StatusBooked: true})
}

// Complete moves a confirmed appointment to completed. A mislabeled no-show
// can also be corrected to completed.
func (s *Service) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, actor, id, StatusCompleted, map[string]bool{StatusConfirmed: true, StatusNoShow: true})
}

// MarkNoShow records that the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, actor, id, StatusNoShow, map[string]bool{StatusBooked: true, StatusConfirmed: true})
}

func (s *Service) transition(ctx context.Context, actor Actor, id uuid.UUID, to string, from map[string]bool) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleAdmin && !(actor.Role == identity.RoleDoctor && a.DoctorID == actor.ID) {
		return nil, authorizationErr("only the appointment's doctor can change its status")
	}
	if !from[a.Status] {
		return nil, stateErr(fmt.Sprintf("cannot move a %s appointment to %s", a.Status, to))
	}
	a.Status = to
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get loads one appointment, restricted to its patient, its doctor, or an
// admin.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, a) {
		return nil, authorizationErr("you are not allowed to view this appointment")
	}
	return a, nil
}

// ListForActor lists appointments scoped to the caller. Patients and
// doctors only ever see their own; admins see everything. Status and date
// filters pass through for every role.
func (s *Service) ListForActor(ctx context.Context, actor Actor, filters map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if filters == nil {
		filters = map[string]string{}
	}
	switch actor.Role {
	case identity.RolePatient:
		filters["patient"] = actor.ID.String()
		delete(filters, "doctor")
	case identity.RoleDoctor:
		filters["doctor"] = actor.ID.String()
		delete(filters, "patient")
	case identity.RoleAdmin:
	default:
		return nil, 0, authorizationErr("unknown role")
	}
	return s.repo.Search(ctx, filters, limit, offset)
}

func appendNote(a *Appointment, line string) {
	if a.Notes == nil || *a.Notes == "" {
		a.Notes = &line
		return
	}
	joined := *a.Notes + "\n" + line
	a.Notes = &joined
}

// -- medical records --

// MedicalRecordRequest carries the doctor's consultation write-up.
type MedicalRecordRequest struct {
	Diagnosis     string
	Prescription  *string
	TreatmentPlan *string
	VitalSigns    map[string]interface{}
	FollowUpDate  *time.Time
}

// CreateMedicalRecord writes the consultation record for a confirmed or
// completed appointment. Only the appointment's doctor can write it, and
// each appointment has at most one record.
func (s *Service) CreateMedicalRecord(ctx context.Context, actor Actor, appointmentID uuid.UUID, req MedicalRecordRequest) (*MedicalRecord, error) {
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleDoctor || a.DoctorID != actor.ID {
		return nil, authorizationErr("only the appointment's doctor can write the medical record")
	}
	if a.Status != StatusConfirmed && a.Status != StatusCompleted {
		return nil, stateErr("a medical record requires a confirmed or completed appointment")
	}
	if req.Diagnosis == "" {
		return nil, validationErr("diagnosis is required")
	}
	if existing, err := s.records.GetByAppointment(ctx, appointmentID); err == nil && existing != nil {
		return nil, conflictErr("this appointment already has a medical record")
	}

	m := &MedicalRecord{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Diagnosis:     req.Diagnosis,
		Prescription:  req.Prescription,
		TreatmentPlan: req.TreatmentPlan,
		VitalSigns:    req.VitalSigns,
		FollowUpDate:  req.FollowUpDate,
	}
	if err := s.records.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMedicalRecord revises an existing record, again restricted to the
// appointment's doctor.
func (s *Service) UpdateMedicalRecord(ctx context.Context, actor Actor, appointmentID uuid.UUID, req MedicalRecordRequest) (*MedicalRecord, error) {
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != identity.RoleDoctor || a.DoctorID != actor.ID {
		return nil, authorizationErr("only the appointment's doctor can revise the medical record")
	}
	if req.Diagnosis == "" {
		return nil, validationErr("diagnosis is required")
	}
	m, err := s.records.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	m.Diagnosis = req.Diagnosis
	m.Prescription = req.Prescription
	m.TreatmentPlan = req.TreatmentPlan
	m.VitalSigns = req.VitalSigns
	m.FollowUpDate = req.FollowUpDate
	if err := s.records.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetMedicalRecord loads the record of one appointment for its patient,
// its doctor, or an admin.
func (s *Service) GetMedicalRecord(ctx context.Context, actor Actor, appointmentID uuid.UUID) (*MedicalRecord, error) {
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, a) {
		return nil, authorizationErr("you are not allowed to view this medical record")
	}
	return s.records.GetByAppointment(ctx, appointmentID)
}

// ListMedicalRecords lists a patient's records. Patients see their own,
// admins anyone's.
func (s *Service) ListMedicalRecords(ctx context.Context, actor Actor, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	if actor.Role == identity.RolePatient && actor.ID != patientID {
		return nil, 0, authorizationErr("you are not allowed to view these records")
	}
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}
