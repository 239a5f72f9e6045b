package appointment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/thien1805/MyHealthCare/internal/platform/auth"
)

// newAuthedContext builds an echo context whose request carries the actor's
// identity the way the auth middleware would set it.
func newAuthedContext(e *echo.Echo, method, target string, body string, actor Actor) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, actor.ID.String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, actor.Role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBookHandler_Created(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()

	date := f.now.AddDate(0, 0, 7).Format("2006-01-02")
	body := `{"doctor_id":"` + f.doctorID.String() + `","department_id":"` + f.deptID.String() +
		`","appointment_date":"` + date + `","appointment_time":"09:00","reason":"annual checkup"}`
	c, rec := newAuthedContext(e, http.MethodPost, "/appointments", body, f.patient())

	if err := h.Book(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("expected booked, got %s", a.Status)
	}
	if a.EstimatedFee != 180000 {
		t.Errorf("expected fee 180000, got %f", a.EstimatedFee)
	}
}

func TestBookHandler_SlotConflict(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)
	h := NewHandler(f.svc)
	e := echo.New()

	date := f.now.AddDate(0, 0, 7).Format("2006-01-02")
	body := `{"doctor_id":"` + f.doctorID.String() + `","department_id":"` + f.deptID.String() +
		`","appointment_date":"` + date + `","appointment_time":"09:00"}`
	other := Actor{ID: uuid.New(), Role: "patient"}
	c, _ := newAuthedContext(e, http.MethodPost, "/appointments", body, other)

	err := h.Book(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", httpErr.Code)
	}
}

func TestBookHandler_BadDate(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()

	body := `{"doctor_id":"` + f.doctorID.String() + `","department_id":"` + f.deptID.String() +
		`","appointment_date":"15-09-2026","appointment_time":"09:00"}`
	c, _ := newAuthedContext(e, http.MethodPost, "/appointments", body, f.patient())

	err := h.Book(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestAvailableSlotsHandler(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t)
	h := NewHandler(f.svc)
	e := echo.New()

	date := f.now.AddDate(0, 0, 7).Format("2006-01-02")
	target := "/appointments/available-slots?doctor_id=" + f.doctorID.String() + "&date=" + date
	c, rec := newAuthedContext(e, http.MethodGet, target, "", f.patient())

	if err := h.AvailableSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Slots []Slot `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Slots) != SlotsPerDay {
		t.Fatalf("expected %d slots, got %d", SlotsPerDay, len(resp.Slots))
	}
	open := 0
	for _, s := range resp.Slots {
		if s.Available {
			open++
		}
	}
	if open != SlotsPerDay-1 {
		t.Errorf("expected %d open slots, got %d", SlotsPerDay-1, open)
	}
}

func TestAvailableSlotsHandler_UnknownDepartment(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()

	date := f.now.AddDate(0, 0, 7).Format("2006-01-02")
	target := "/appointments/available-slots?doctor_id=" + f.doctorID.String() +
		"&date=" + date + "&department_id=" + uuid.NewString()
	c, _ := newAuthedContext(e, http.MethodGet, target, "", f.patient())

	err := h.AvailableSlots(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestCancelHandler_Forbidden(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t)
	h := NewHandler(f.svc)
	e := echo.New()

	stranger := Actor{ID: uuid.New(), Role: "patient"}
	c, _ := newAuthedContext(e, http.MethodPost, "/", `{}`, stranger)
	c.SetPath("/appointments/:id/cancel")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Cancel(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestGetHandler_NotFound(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := newAuthedContext(e, http.MethodGet, "/", "", f.patient())
	c.SetPath("/appointments/:id")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestRescheduleHandler_Success(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t)
	h := NewHandler(f.svc)
	e := echo.New()

	newDate := f.now.AddDate(0, 0, 10).Format("2006-01-02")
	body := `{"appointment_date":"` + newDate + `","appointment_time":"14:00","reason":"work trip"}`
	c, rec := newAuthedContext(e, http.MethodPost, "/", body, f.patient())
	c.SetPath("/appointments/:id/reschedule")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Reschedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var moved Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &moved); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if moved.RescheduledFrom == nil || moved.RescheduledFrom.Time != "09:00" {
		t.Errorf("expected rescheduled_from 09:00, got %v", moved.RescheduledFrom)
	}
}

func TestAssignServiceHandler_MissingServiceID(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t)
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := newAuthedContext(e, http.MethodPost, "/", `{}`, f.doctor())
	c.SetPath("/appointments/:id/assign-service")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.AssignService(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", httpErr.Code)
	}
}

func TestCreateMedicalRecordHandler(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t)
	if _, err := f.svc.Confirm(context.Background(), f.doctor(), a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewHandler(f.svc)
	e := echo.New()

	followUp := f.now.AddDate(0, 0, 30).Format("2006-01-02")
	body := `{"diagnosis":"Hypertension stage 1","prescription":"Amlodipine 5mg","follow_up_date":"` + followUp + `"}`
	c, rec := newAuthedContext(e, http.MethodPost, "/", body, f.doctor())
	c.SetPath("/appointments/:id/medical-record")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.CreateMedicalRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var m MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if m.FollowUpDate == nil {
		t.Error("expected follow_up_date to be set")
	}
}
