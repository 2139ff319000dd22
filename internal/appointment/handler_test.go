package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/pagination"
)

// mockService implements ServiceInterface for testing
type mockService struct {
	bookFunc           func(ctx context.Context, p *auth.Principal, req BookRequest) (*Appointment, error)
	getFunc            func(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error)
	listForPatientFunc func(ctx context.Context, p *auth.Principal, patientID int64, scope Scope) ([]Appointment, error)
	listForDoctorFunc  func(ctx context.Context, p *auth.Principal, doctorID int64, scope Scope) ([]Appointment, error)
	listAllFunc        func(ctx context.Context, status *Status, params pagination.Params) (*pagination.Page[Appointment], error)
	confirmFunc        func(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error)
	rejectFunc         func(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error)
	cancelFunc         func(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error)
	markPaidFunc       func(ctx context.Context, p *auth.Principal, id int64, req PaymentRequest) (*Appointment, error)
}

func (m *mockService) Book(ctx context.Context, p *auth.Principal, req BookRequest) (*Appointment, error) {
	if m.bookFunc != nil {
		return m.bookFunc(ctx, p, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Get(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, p, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListForPatient(ctx context.Context, p *auth.Principal, patientID int64, scope Scope) ([]Appointment, error) {
	if m.listForPatientFunc != nil {
		return m.listForPatientFunc(ctx, p, patientID, scope)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListForDoctor(ctx context.Context, p *auth.Principal, doctorID int64, scope Scope) ([]Appointment, error) {
	if m.listForDoctorFunc != nil {
		return m.listForDoctorFunc(ctx, p, doctorID, scope)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) ListAll(ctx context.Context, status *Status, params pagination.Params) (*pagination.Page[Appointment], error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, status, params)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Confirm(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, p, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Reject(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, p, id, reason)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Cancel(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, p, id, reason)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) MarkPaid(ctx context.Context, p *auth.Principal, id int64, req PaymentRequest) (*Appointment, error) {
	if m.markPaidFunc != nil {
		return m.markPaidFunc(ctx, p, id, req)
	}
	return nil, errors.New("not implemented")
}

func withPrincipal(req *http.Request, p *auth.Principal) *http.Request {
	return req.WithContext(auth.ContextWithPrincipal(req.Context(), p))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestHandlerBook_Success(t *testing.T) {
	svc := &mockService{
		bookFunc: func(ctx context.Context, p *auth.Principal, req BookRequest) (*Appointment, error) {
			if req.DoctorID != 2 || req.Symptoms != "cough" {
				t.Errorf("Unexpected request: %+v", req)
			}
			a := sampleAppointment(StatusPending)
			return a, nil
		},
	}
	h := NewHandler(svc)

	body, _ := json.Marshal(map[string]interface{}{
		"doctorId":        2,
		"appointmentDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"symptoms":        "cough",
	})
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/Appointments", bytes.NewReader(body)), patientPrincipal(1))
	rr := httptest.NewRecorder()

	h.Book(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp AppointmentSuccessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.Appointment == nil || resp.Appointment.Status != StatusPending {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHandlerBook_Unauthenticated(t *testing.T) {
	h := NewHandler(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/api/Appointments", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()

	h.Book(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestHandlerBook_InvalidJSON(t *testing.T) {
	h := NewHandler(&mockService{})
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/api/Appointments", bytes.NewReader([]byte("nope"))), patientPrincipal(1))
	rr := httptest.NewRecorder()

	h.Book(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandlerConfirm_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"not found", ErrAppointmentNotFound, http.StatusNotFound, "not_found"},
		{"bad transition", fmt.Errorf("%w: cannot confirm an appointment that is Completed", ErrInvalidTransition), http.StatusBadRequest, "invalid_transition"},
		{"lost race", ErrStatusConflict, http.StatusConflict, "conflict"},
		{"not owner", ErrForbidden, http.StatusForbidden, "forbidden"},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockService{
				confirmFunc: func(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
					return nil, tt.err
				},
			})

			req := withPrincipal(httptest.NewRequest(http.MethodPut, "/api/Appointments/10/confirm", nil), doctorPrincipal(2))
			req = mux.SetURLVars(req, map[string]string{"id": "10"})
			rr := httptest.NewRecorder()

			h.Confirm(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := decodeError(t, rr)["error"]; got != tt.wantType {
				t.Errorf("Expected error type %s, got %s", tt.wantType, got)
			}
		})
	}
}

func TestHandlerConfirm_InvalidID(t *testing.T) {
	h := NewHandler(&mockService{})
	req := withPrincipal(httptest.NewRequest(http.MethodPut, "/api/Appointments/abc/confirm", nil), doctorPrincipal(2))
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()

	h.Confirm(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandlerReject_PassesReason(t *testing.T) {
	var gotReason string
	h := NewHandler(&mockService{
		rejectFunc: func(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
			gotReason = reason
			return sampleAppointment(StatusRejected), nil
		},
	})

	req := withPrincipal(httptest.NewRequest(http.MethodPut, "/api/Appointments/10/reject", bytes.NewReader([]byte(`{"reason":"on leave"}`))), doctorPrincipal(2))
	req = mux.SetURLVars(req, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Reject(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if gotReason != "on leave" {
		t.Errorf("Expected reason 'on leave', got %q", gotReason)
	}
}

func TestHandlerCancel_EmptyBody(t *testing.T) {
	h := NewHandler(&mockService{
		cancelFunc: func(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
			return sampleAppointment(StatusCancelled), nil
		},
	})

	req := withPrincipal(httptest.NewRequest(http.MethodPut, "/api/Appointments/10/cancel", nil), patientPrincipal(1))
	req = mux.SetURLVars(req, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.Cancel(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandlerMarkPaid_NoInvoice(t *testing.T) {
	h := NewHandler(&mockService{
		markPaidFunc: func(ctx context.Context, p *auth.Principal, id int64, req PaymentRequest) (*Appointment, error) {
			return nil, ErrNoInvoice
		},
	})

	req := withPrincipal(httptest.NewRequest(http.MethodPut, "/api/Appointments/10/payment", bytes.NewReader([]byte(`{"invoiceStatus":"Paid"}`))), adminPrincipal())
	req = mux.SetURLVars(req, map[string]string{"id": "10"})
	rr := httptest.NewRecorder()

	h.MarkPaid(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandlerListByPatient_Scope(t *testing.T) {
	var gotScope Scope
	h := NewHandler(&mockService{
		listForPatientFunc: func(ctx context.Context, p *auth.Principal, patientID int64, scope Scope) ([]Appointment, error) {
			gotScope = scope
			return []Appointment{*sampleAppointment(StatusConfirmed)}, nil
		},
	})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/Appointments/patient/1?scope=upcoming", nil), patientPrincipal(1))
	req = mux.SetURLVars(req, map[string]string{"patientId": "1"})
	rr := httptest.NewRecorder()

	h.ListByPatient(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if gotScope != ScopeUpcoming {
		t.Errorf("Expected upcoming scope, got %s", gotScope)
	}

	bad := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/Appointments/patient/1?scope=someday", nil), patientPrincipal(1))
	bad = mux.SetURLVars(bad, map[string]string{"patientId": "1"})
	rr = httptest.NewRecorder()
	h.ListByPatient(rr, bad)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad scope, got %d", rr.Code)
	}
}

func TestHandlerListAll_StatusFilter(t *testing.T) {
	h := NewHandler(&mockService{
		listAllFunc: func(ctx context.Context, status *Status, params pagination.Params) (*pagination.Page[Appointment], error) {
			if status == nil || *status != StatusCompleted {
				t.Errorf("Expected Completed filter, got %v", status)
			}
			page := pagination.NewPage([]Appointment{*sampleAppointment(StatusCompleted)}, params, 1)
			return &page, nil
		},
	})

	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/api/Appointments?status=completed&page=1&limit=5", nil), adminPrincipal())
	rr := httptest.NewRecorder()

	h.ListAll(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var page struct {
		Items []Appointment   `json:"items"`
		Meta  pagination.Meta `json:"pagination"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(page.Items) != 1 || page.Meta.PerPage != 5 {
		t.Errorf("Unexpected page: %+v", page)
	}
}
