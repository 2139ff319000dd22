package medicine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

type mockRepository struct {
	listFunc                 func(ctx context.Context) ([]Medicine, error)
	listBySpecializationFunc func(ctx context.Context, specialization string) ([]Medicine, error)
	getByIDFunc              func(ctx context.Context, id int64) (*Medicine, error)
}

func (m *mockRepository) List(ctx context.Context) ([]Medicine, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ListBySpecialization(ctx context.Context, specialization string) ([]Medicine, error) {
	if m.listBySpecializationFunc != nil {
		return m.listBySpecializationFunc(ctx, specialization)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*Medicine, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func TestHandlerListBySpecialization(t *testing.T) {
	var got string
	repo := &mockRepository{
		listBySpecializationFunc: func(ctx context.Context, specialization string) ([]Medicine, error) {
			got = specialization
			return []Medicine{{ID: 5, Name: "Amlodipine 5mg", Specialization: "Cardiology", PricePerTablet: 5}}, nil
		},
	}
	h := NewHandler(NewService(repo))

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/Medicines/by-specialization/Cardiology", nil), map[string]string{"specialization": " Cardiology "})
	rr := httptest.NewRecorder()
	h.ListBySpecialization(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if got != "Cardiology" {
		t.Errorf("Expected trimmed specialization, got %q", got)
	}
	var body []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(body) != 1 || body[0]["medicineID"] != float64(5) || body[0]["pricePerTablet"] != float64(5) {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestHandlerListBySpecialization_Blank(t *testing.T) {
	h := NewHandler(NewService(&mockRepository{}))
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/Medicines/specialization/%20", nil), map[string]string{"specialization": " "})
	rr := httptest.NewRecorder()
	h.ListBySpecialization(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandlerGet(t *testing.T) {
	repo := &mockRepository{
		getByIDFunc: func(ctx context.Context, id int64) (*Medicine, error) {
			if id == 1 {
				return &Medicine{ID: 1, Name: "Paracetamol 500mg", Specialization: "General", PricePerTablet: 2}, nil
			}
			return nil, ErrMedicineNotFound
		},
	}
	h := NewHandler(NewService(repo))

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"found", "1", http.StatusOK},
		{"missing", "99", http.StatusNotFound},
		{"invalid", "abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/Medicines/"+tt.id, nil), map[string]string{"id": tt.id})
			rr := httptest.NewRecorder()
			h.Get(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestHandlerList_StoreFailure(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(ctx context.Context) ([]Medicine, error) {
			return nil, errors.New("connection reset")
		},
	}
	h := NewHandler(NewService(repo))
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/Medicines/all", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
}
