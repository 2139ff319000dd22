package http

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swasthatech/hospital-service/internal/admin"
	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/doctor"
	"github.com/swasthatech/hospital-service/internal/medicine"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/patient"
	"github.com/swasthatech/hospital-service/internal/prescription"
	"github.com/swasthatech/hospital-service/internal/telemetry"
	"github.com/swasthatech/hospital-service/internal/users"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Deps is everything the router needs to build the resource handlers.
type Deps struct {
	DB          *sql.DB
	Issuer      *auth.Issuer
	Verifier    *auth.Verifier
	Permissions auth.Permissions
	Publisher   messaging.PublisherInterface
	// Metrics may be nil when telemetry is disabled.
	Metrics *telemetry.Metrics

	ServiceName     string
	AllowedOrigins  string
	OrgEmailDomain  string
	ConsultationFee float64
}

// NewHandler is the server's root handler. CORS wraps the router so
// preflight requests are answered before route matching.
func NewHandler(d Deps) http.Handler {
	return CORSMiddleware(d.AllowedOrigins)(SetupRouter(d))
}

// SetupRouter initializes all routes for the application
func SetupRouter(d Deps) *mux.Router {
	userRepo := users.NewRepository(d.DB)
	userHandler := users.NewHandler(users.NewService(userRepo, d.Issuer, d.Publisher, d.Metrics, d.OrgEmailDomain))

	adminHandler := admin.NewHandler(admin.NewService(admin.NewRepository(d.DB), d.Publisher, d.Metrics))
	doctorHandler := doctor.NewHandler(doctor.NewService(doctor.NewRepository(d.DB), d.Publisher, d.Metrics))
	patientHandler := patient.NewHandler(patient.NewService(patient.NewRepository(d.DB), d.Publisher, d.Metrics))
	appointmentHandler := appointment.NewHandler(appointment.NewService(appointment.NewRepository(d.DB), d.Publisher, d.Metrics))
	prescriptionHandler := prescription.NewHandler(prescription.NewService(prescription.NewRepository(d.DB), d.Publisher, d.Metrics, d.ConsultationFee))
	medicineHandler := medicine.NewHandler(medicine.NewService(medicine.NewRepository(d.DB)))

	r := mux.NewRouter()
	r.Use(RequestID, Recovery, RequestLogger)
	r.Use(otelmux.Middleware(d.ServiceName))
	r.Use(Metrics(d.Metrics))

	// Public endpoints
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"hospital-service"}`))
	}).Methods("GET")
	r.HandleFunc("/.well-known/jwks.json", d.Issuer.ServeJWKS).Methods("GET")

	authn := auth.MiddlewareWithMetrics(d.Verifier, d.Metrics)
	protect := func(permission string, h http.HandlerFunc) http.Handler {
		return authn(auth.RequirePermissionWithMetrics(permission, d.Permissions, d.Metrics)(h))
	}

	api := r.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/Users", userHandler.Register).Methods("POST")
	api.HandleFunc("/Users/register", userHandler.Register).Methods("POST")
	api.HandleFunc("/Users/login", userHandler.Login).Methods("POST")
	api.Handle("/Users", protect("user:list", userHandler.List)).Methods("GET")
	api.Handle("/Users/deleted", protect("user:list", userHandler.ListDeleted)).Methods("GET")
	api.Handle("/Users/{id}", protect("user:view", userHandler.Get)).Methods("GET")
	api.Handle("/Users/{id}", protect("user:update", userHandler.Update)).Methods("PUT")
	api.Handle("/Users/{id}", protect("user:delete", userHandler.Delete)).Methods("DELETE")
	api.Handle("/Users/{id}/restore", protect("user:delete", userHandler.Restore)).Methods("PUT")
	api.Handle("/Users/{id}/doctor-details", protect("profile:create", doctorHandler.CreateDetails)).Methods("POST")
	api.Handle("/Users/{id}/patient-details", protect("profile:create", patientHandler.CreateDetails)).Methods("POST")

	// Admins
	api.Handle("/Admins", protect("admin:view", adminHandler.List)).Methods("GET")
	api.Handle("/Admins/pending", protect("admin:view", adminHandler.ListPending)).Methods("GET")
	api.Handle("/Admins/deleted", protect("admin:view", adminHandler.ListDeleted)).Methods("GET")
	api.Handle("/Admins/stats", protect("admin:view", adminHandler.Stats)).Methods("GET")
	api.Handle("/Admins/{id}", protect("admin:view", adminHandler.Get)).Methods("GET")
	api.Handle("/Admins/{id}", protect("admin:update", adminHandler.Update)).Methods("PUT")
	api.Handle("/Admins/{id}", protect("admin:delete", adminHandler.Delete)).Methods("DELETE")
	api.Handle("/Admins/{id}/approve", protect("admin:approve", adminHandler.Approve)).Methods("PUT")
	api.Handle("/Admins/{id}/reject", protect("admin:approve", adminHandler.Reject)).Methods("PUT")
	api.Handle("/Admins/{id}/restore", protect("admin:delete", adminHandler.Restore)).Methods("PUT")

	// Doctors
	api.Handle("/Doctors", protect("doctor:view", doctorHandler.List)).Methods("GET")
	api.Handle("/Doctors", protect("doctor:create", doctorHandler.Create)).Methods("POST")
	api.Handle("/Doctors/deleted", protect("doctor:delete", doctorHandler.ListDeleted)).Methods("GET")
	api.Handle("/Doctors/specialization/{specialization}", protect("doctor:view", doctorHandler.ListBySpecialization)).Methods("GET")
	api.Handle("/Doctors/check-contact/{contactNo}", protect("doctor:view", doctorHandler.CheckContact)).Methods("GET")
	api.Handle("/Doctors/check-hpid/{hpid}", protect("doctor:view", doctorHandler.CheckHPID)).Methods("GET")
	api.Handle("/Doctors/{id}", protect("doctor:view", doctorHandler.Get)).Methods("GET")
	api.Handle("/Doctors/{id}", protect("doctor:update", doctorHandler.Update)).Methods("PUT")
	api.Handle("/Doctors/{id}", protect("doctor:delete", doctorHandler.Delete)).Methods("DELETE")
	api.Handle("/Doctors/{id}/restore", protect("doctor:delete", doctorHandler.Restore)).Methods("PUT")
	api.Handle("/Doctors/{id}/permanent", protect("doctor:delete", doctorHandler.PermanentDelete)).Methods("DELETE")

	// Patients
	api.Handle("/Patients", protect("patient:list", patientHandler.List)).Methods("GET")
	api.Handle("/Patients", protect("profile:create", patientHandler.Create)).Methods("POST")
	api.Handle("/Patients/list", protect("patient:list", patientHandler.ListWithAccounts)).Methods("GET")
	api.Handle("/Patients/deleted", protect("patient:delete", patientHandler.ListDeleted)).Methods("GET")
	api.Handle("/Patients/check-contact/{contactNo}", protect("patient:view", patientHandler.CheckContact)).Methods("GET")
	api.Handle("/Patients/check-aadhaar/{aadhaarNo}", protect("patient:view", patientHandler.CheckAadhaar)).Methods("GET")
	api.Handle("/Patients/{id}", protect("patient:view", patientHandler.Get)).Methods("GET")
	api.Handle("/Patients/{id}", protect("patient:update", patientHandler.Update)).Methods("PUT")
	api.Handle("/Patients/{id}", protect("patient:delete", patientHandler.Delete)).Methods("DELETE")
	api.Handle("/Patients/{id}/restore", protect("patient:delete", patientHandler.Restore)).Methods("PUT")
	api.Handle("/Patients/{id}/permanent", protect("patient:delete", patientHandler.PermanentDelete)).Methods("DELETE")

	// Appointments
	api.Handle("/Appointments", protect("appointment:book", appointmentHandler.Book)).Methods("POST")
	api.Handle("/Appointments", protect("appointment:view_all", appointmentHandler.ListAll)).Methods("GET")
	api.Handle("/Appointments/patient/{patientId}", protect("appointment:view", appointmentHandler.ListByPatient)).Methods("GET")
	api.Handle("/Appointments/doctor/{doctorId}", protect("appointment:view", appointmentHandler.ListByDoctor)).Methods("GET")
	api.Handle("/Appointments/{id}", protect("appointment:view", appointmentHandler.Get)).Methods("GET")
	api.Handle("/Appointments/{id}/confirm", protect("appointment:confirm", appointmentHandler.Confirm)).Methods("PUT")
	api.Handle("/Appointments/{id}/reject", protect("appointment:reject", appointmentHandler.Reject)).Methods("PUT")
	api.Handle("/Appointments/{id}/cancel", protect("appointment:cancel", appointmentHandler.Cancel)).Methods("PUT")
	api.Handle("/Appointments/{id}/payment", protect("appointment:payment", appointmentHandler.MarkPaid)).Methods("PUT")

	// Prescriptions; literal paths are registered before /{id}.
	api.Handle("/Prescriptions", protect("prescription:view", prescriptionHandler.List)).Methods("GET")
	api.Handle("/Prescriptions", protect("prescription:write", prescriptionHandler.Create)).Methods("POST")
	api.Handle("/Prescriptions/bill", protect("billing:calculate", prescriptionHandler.Bill)).Methods("POST")
	api.Handle("/Prescriptions/save-with-completion", protect("prescription:write", prescriptionHandler.SaveWithCompletion)).Methods("POST")
	api.Handle("/Prescriptions/appointment/{appointmentId}", protect("prescription:view", prescriptionHandler.GetByAppointment)).Methods("GET")
	api.Handle("/Prescriptions/appointment/{appointmentId}/pdf-data", protect("prescription:view", prescriptionHandler.PDFData)).Methods("GET")
	api.Handle("/Prescriptions/{id}", protect("prescription:view", prescriptionHandler.Get)).Methods("GET")
	api.Handle("/Prescriptions/{id}", protect("prescription:write", prescriptionHandler.Update)).Methods("PUT")
	api.Handle("/Prescriptions/{id}", protect("prescription:delete", prescriptionHandler.Delete)).Methods("DELETE")

	// Medicines
	api.Handle("/Medicines/all", protect("medicine:view", medicineHandler.List)).Methods("GET")
	api.Handle("/Medicines/specialization/{specialization}", protect("medicine:view", medicineHandler.ListBySpecialization)).Methods("GET")
	api.Handle("/Medicines/by-specialization/{specialization}", protect("medicine:view", medicineHandler.ListBySpecialization)).Methods("GET")
	api.Handle("/Medicines/{id}", protect("medicine:view", medicineHandler.Get)).Methods("GET")

	return r
}
