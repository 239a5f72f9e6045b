package appointment

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/thien1805/MyHealthCare/internal/platform/auth"
	"github.com/thien1805/MyHealthCare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	authed := api.Group("", auth.RequireRole("patient", "doctor", "admin"))
	authed.GET("/appointments/available-slots", h.AvailableSlots)
	authed.GET("/appointments", h.List)
	authed.GET("/appointments/:id", h.Get)
	authed.POST("/appointments/:id/cancel", h.Cancel)
	authed.PUT("/appointments/:id/reschedule", h.Reschedule)
	authed.GET("/appointments/:id/medical-record", h.GetMedicalRecord)
	authed.GET("/patients/:id/medical-records", h.ListMedicalRecords)

	patients := api.Group("", auth.RequireRole("patient"))
	patients.POST("/appointments", h.Book)

	staff := api.Group("", auth.RequireRole("doctor", "admin"))
	staff.POST("/appointments/:id/confirm", h.Confirm)
	staff.POST("/appointments/:id/complete", h.Complete)
	staff.POST("/appointments/:id/no-show", h.MarkNoShow)

	doctors := api.Group("", auth.RequireRole("doctor"))
	doctors.POST("/appointments/:id/assign-service", h.AssignService)
	doctors.POST("/appointments/:id/medical-record", h.CreateMedicalRecord)
	doctors.PUT("/appointments/:id/medical-record", h.UpdateMedicalRecord)
}

func actorFromContext(c echo.Context) (Actor, error) {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	return Actor{ID: id, Role: auth.RoleFromContext(ctx)}, nil
}

// httpError maps a classified business error onto a status code. Unknown
// errors become 500s.
func httpError(err error) error {
	kind, ok := KindOf(err)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	switch kind {
	case KindValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case KindAuthorization:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case KindConflict, KindState:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	var departmentID *uuid.UUID
	if v := c.QueryParam("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "department_id must be a valid id")
		}
		departmentID = &id
	}
	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date, departmentID)
	if err != nil {
		return httpError(err)
	}
	resp := map[string]interface{}{
		"doctor_id": doctorID,
		"date":      date.Format("2006-01-02"),
		"slots":     slots,
	}
	if departmentID != nil {
		resp["department_id"] = *departmentID
	}
	return c.JSON(http.StatusOK, resp)
}

type bookPayload struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	DepartmentID    uuid.UUID `json:"department_id"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Symptoms        *string   `json:"symptoms"`
	Reason          *string   `json:"reason"`
	Notes           *string   `json:"notes"`
}

func (h *Handler) Book(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var payload bookPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := parseDate(payload.AppointmentDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
	}
	a, err := h.svc.Book(c.Request().Context(), actor, BookRequest{
		DoctorID:        payload.DoctorID,
		DepartmentID:    payload.DepartmentID,
		AppointmentDate: date,
		AppointmentTime: payload.AppointmentTime,
		Symptoms:        payload.Symptoms,
		Reason:          payload.Reason,
		Notes:           payload.Notes,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	filters := map[string]string{}
	for _, key := range []string{"patient", "doctor", "department", "status", "date"} {
		if v := c.QueryParam(key); v != "" {
			filters[key] = v
		}
	}
	items, total, err := h.svc.ListForActor(c.Request().Context(), actor, filters, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type cancelPayload struct {
	Reason *string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload cancelPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Cancel(c.Request().Context(), actor, id, payload.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type reschedulePayload struct {
	AppointmentDate string  `json:"appointment_date"`
	AppointmentTime string  `json:"appointment_time"`
	Reason          *string `json:"reason"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload reschedulePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := parseDate(payload.AppointmentDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_date must be YYYY-MM-DD")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), actor, id, date, payload.AppointmentTime, payload.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type assignServicePayload struct {
	ServiceID uuid.UUID `json:"service_id"`
}

func (h *Handler) AssignService(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload assignServicePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if payload.ServiceID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "service_id is required")
	}
	a, err := h.svc.AssignService(c.Request().Context(), actor, id, payload.ServiceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Confirm(c echo.Context) error  { return h.statusChange(c, h.svc.Confirm) }
func (h *Handler) Complete(c echo.Context) error { return h.statusChange(c, h.svc.Complete) }
func (h *Handler) MarkNoShow(c echo.Context) error {
	return h.statusChange(c, h.svc.MarkNoShow)
}

func (h *Handler) statusChange(c echo.Context, op func(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error)) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type medicalRecordPayload struct {
	Diagnosis     string                 `json:"diagnosis"`
	Prescription  *string                `json:"prescription"`
	TreatmentPlan *string                `json:"treatment_plan"`
	VitalSigns    map[string]interface{} `json:"vital_signs"`
	FollowUpDate  *string                `json:"follow_up_date"`
}

func (h *Handler) CreateMedicalRecord(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload medicalRecordPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req := MedicalRecordRequest{
		Diagnosis:     payload.Diagnosis,
		Prescription:  payload.Prescription,
		TreatmentPlan: payload.TreatmentPlan,
		VitalSigns:    payload.VitalSigns,
	}
	if payload.FollowUpDate != nil {
		d, err := parseDate(*payload.FollowUpDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "follow_up_date must be YYYY-MM-DD")
		}
		req.FollowUpDate = &d
	}
	m, err := h.svc.CreateMedicalRecord(c.Request().Context(), actor, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMedicalRecord(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var payload medicalRecordPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req := MedicalRecordRequest{
		Diagnosis:     payload.Diagnosis,
		Prescription:  payload.Prescription,
		TreatmentPlan: payload.TreatmentPlan,
		VitalSigns:    payload.VitalSigns,
	}
	if payload.FollowUpDate != nil {
		d, err := parseDate(*payload.FollowUpDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "follow_up_date must be YYYY-MM-DD")
		}
		req.FollowUpDate = &d
	}
	m, err := h.svc.UpdateMedicalRecord(c.Request().Context(), actor, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetMedicalRecord(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetMedicalRecord(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicalRecords(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicalRecords(c.Request().Context(), actor, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
