package prescription

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/appointment"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/billing"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/patient"
)

// TransitionRecorder receives a count of every appointment completion.
type TransitionRecorder interface {
	RecordAppointmentTransition(ctx context.Context, from, to string)
}

type Service struct {
	repo       RepositoryInterface
	publisher  messaging.PublisherInterface
	metrics    TransitionRecorder
	defaultFee float64
	now        func() time.Time
}

// NewService builds the prescription service. defaultFee is the consultation
// fee used when a bill request does not name one.
func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics TransitionRecorder, defaultFee float64) *Service {
	return &Service{
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		defaultFee: defaultFee,
		now:        time.Now,
	}
}

func canView(p *auth.Principal, parties *Parties) bool {
	if p.IsAdmin() {
		return true
	}
	if p.HasRole(auth.RoleDoctor) && p.ProfileID == parties.DoctorID {
		return true
	}
	return p.HasRole(auth.RolePatient) && p.ProfileID == parties.PatientID
}

func canWrite(p *auth.Principal, parties *Parties) bool {
	return p.IsAdmin() || (p.HasRole(auth.RoleDoctor) && p.ProfileID == parties.DoctorID)
}

func (s *Service) authorize(ctx context.Context, p *auth.Principal, appointmentID int64, allowed func(*auth.Principal, *Parties) bool) error {
	parties, err := s.repo.Parties(ctx, appointmentID)
	if err != nil {
		return err
	}
	if !allowed(p, parties) {
		return ErrForbidden
	}
	return nil
}

// List returns every prescription; only admins may list across appointments.
func (s *Service) List(ctx context.Context, p *auth.Principal) ([]Prescription, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Prescription, error) {
	pr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, pr.AppointmentID, canView); err != nil {
		return nil, err
	}
	return pr, nil
}

// GetByAppointment returns ErrPrescriptionNotFound while the appointment has
// not been prescribed yet.
func (s *Service) GetByAppointment(ctx context.Context, p *auth.Principal, appointmentID int64) (*Prescription, error) {
	if err := s.authorize(ctx, p, appointmentID, canView); err != nil {
		return nil, err
	}
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, req CreatePrescriptionRequest) (*Prescription, error) {
	if req.AppointmentID <= 0 {
		return nil, ErrMissingAppointment
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, req.AppointmentID, canWrite); err != nil {
		return nil, err
	}

	pr, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("prescription_id", pr.ID).Int64("appointment_id", pr.AppointmentID).Str("actor", p.Actor()).Msg("prescription created")
	return pr, nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, req UpdatePrescriptionRequest) (*Prescription, error) {
	if req.PrescriptionID != 0 && req.PrescriptionID != id {
		return nil, ErrIDMismatch
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, current.AppointmentID, canWrite); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req.Fields)
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("prescription_id", id).Str("actor", p.Actor()).Msg("prescription deleted")
	return nil
}

// SaveWithCompletion saves the prescription and completes the appointment
// atomically. With a consultation fee the invoice amount is checked against
// the computed bill, which is returned alongside.
func (s *Service) SaveWithCompletion(ctx context.Context, p *auth.Principal, req CompletionRequest) (*CompletionResult, error) {
	if req.AppointmentID <= 0 {
		return nil, ErrMissingAppointment
	}
	if req.InvoiceAmount <= 0 {
		return nil, billing.ErrAmountNotPositive
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var bill *billing.Bill
	if req.ConsultationFee != nil {
		b, err := billing.Calculate(*req.ConsultationFee, req.lines().billingItems())
		if err != nil {
			return nil, err
		}
		if err := billing.VerifyAmount(req.InvoiceAmount, b); err != nil {
			return nil, err
		}
		bill = &b
	}

	if err := s.authorize(ctx, p, req.AppointmentID, canWrite); err != nil {
		return nil, err
	}

	c, err := s.repo.SaveWithCompletion(ctx, req.AppointmentID, req.Fields, req.InvoiceAmount)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("appointment_id", req.AppointmentID).
		Int64("prescription_id", c.Prescription.ID).
		Float64("invoice_amount", req.InvoiceAmount).
		Str("actor", p.Actor()).
		Msg("appointment completed with prescription")
	if s.metrics != nil {
		s.metrics.RecordAppointmentTransition(ctx, c.PreviousStatus, string(appointment.StatusCompleted))
	}
	messaging.PublishBestEffort(ctx, s.publisher, messaging.EventAppointmentCompleted, messaging.AppointmentEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventAppointmentCompleted),
		Data: messaging.AppointmentData{
			AppointmentID:   req.AppointmentID,
			PatientID:       c.PatientID,
			DoctorID:        c.DoctorID,
			OldStatus:       c.PreviousStatus,
			NewStatus:       string(appointment.StatusCompleted),
			AppointmentDate: c.AppointmentDate,
			InvoiceStatus:   appointment.InvoicePending,
			InvoiceAmount:   req.InvoiceAmount,
			ChangedAt:       s.now().UTC(),
		},
	})

	return &CompletionResult{Prescription: c.Prescription, InvoiceAmount: req.InvoiceAmount, Bill: bill}, nil
}

// CalculateBill prices a medicine list without touching the store.
func (s *Service) CalculateBill(ctx context.Context, req BillRequest) (*billing.Bill, error) {
	if err := req.Medicines.validate(); err != nil {
		return nil, err
	}
	fee := s.defaultFee
	if req.ConsultationFee != nil {
		fee = *req.ConsultationFee
	}
	b, err := billing.Calculate(fee, req.Medicines.sorted().billingItems())
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// PDFData gathers what a printable prescription needs. The bill is included
// only when the default consultation fee explains the invoiced amount.
func (s *Service) PDFData(ctx context.Context, p *auth.Principal, appointmentID int64) (*PDFData, error) {
	data, err := s.repo.PDFData(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !canView(p, &Parties{PatientID: data.patientID, DoctorID: data.doctorID}) {
		return nil, ErrForbidden
	}

	data.PatientInfo.Age = patient.AgeOn(patient.Date{Time: data.dob}, s.now())
	if data.InvoiceAmount != nil {
		b, err := billing.Calculate(s.defaultFee, data.Prescription.Medicines.billingItems())
		if err == nil && billing.VerifyAmount(*data.InvoiceAmount, b) == nil {
			data.Bill = &b
		}
	}
	return data, nil
}
