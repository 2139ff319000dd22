package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/messaging"
	"github.com/swasthatech/hospital-service/internal/pagination"
)

// TransitionRecorder receives a count of every status change.
type TransitionRecorder interface {
	RecordAppointmentTransition(ctx context.Context, from, to string)
}

type Service struct {
	repo      RepositoryInterface
	publisher messaging.PublisherInterface
	metrics   TransitionRecorder
	now       func() time.Time
}

func NewService(repo RepositoryInterface, publisher messaging.PublisherInterface, metrics TransitionRecorder) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

func isPatientOf(p *auth.Principal, a *Appointment) bool {
	return p.HasRole(auth.RolePatient) && p.ProfileID == a.PatientID
}

func isDoctorOf(p *auth.Principal, a *Appointment) bool {
	return p.HasRole(auth.RoleDoctor) && p.ProfileID == a.DoctorID
}

func (s *Service) Book(ctx context.Context, p *auth.Principal, req BookRequest) (*Appointment, error) {
	if !p.IsAdmin() {
		if !p.HasRole(auth.RolePatient) {
			return nil, ErrForbidden
		}
		if req.PatientID == 0 {
			req.PatientID = p.ProfileID
		}
		if req.PatientID != p.ProfileID {
			return nil, ErrForbidden
		}
	}
	req.Symptoms = strings.TrimSpace(req.Symptoms)
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}

	patientOK, doctorOK, err := s.repo.PartiesActive(ctx, req.PatientID, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !patientOK {
		return nil, ErrPatientNotFound
	}
	if !doctorOK {
		return nil, ErrDoctorNotFound
	}

	a, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("appointment_id", a.ID).Int64("patient_id", a.PatientID).Int64("doctor_id", a.DoctorID).Msg("appointment booked")
	s.publish(ctx, messaging.EventAppointmentBooked, a, "", "")
	return a, nil
}

// Get returns one appointment visible to the caller.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !isPatientOf(p, a) && !isDoctorOf(p, a) {
		return nil, ErrForbidden
	}
	return a, nil
}

// ListForPatient lists a patient's appointments. Patients see only their
// own; doctors may read any patient's history.
func (s *Service) ListForPatient(ctx context.Context, p *auth.Principal, patientID int64, scope Scope) ([]Appointment, error) {
	if p.HasRole(auth.RolePatient) && !p.IsAdmin() && p.ProfileID != patientID {
		return nil, ErrForbidden
	}
	return s.repo.ListByPatient(ctx, patientID, scope, s.now())
}

func (s *Service) ListForDoctor(ctx context.Context, p *auth.Principal, doctorID int64, scope Scope) ([]Appointment, error) {
	if !p.IsAdmin() && !(p.HasRole(auth.RoleDoctor) && p.ProfileID == doctorID) {
		return nil, ErrForbidden
	}
	return s.repo.ListByDoctor(ctx, doctorID, scope, s.now())
}

func (s *Service) ListAll(ctx context.Context, status *Status, params pagination.Params) (*pagination.Page[Appointment], error) {
	params.Validate()
	items, total, err := s.repo.List(ctx, status, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(items, params, total)
	return &page, nil
}

func (s *Service) Confirm(ctx context.Context, p *auth.Principal, id int64) (*Appointment, error) {
	return s.transition(ctx, p, id, ActionConfirm, "", isDoctorOf)
}

func (s *Service) Reject(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
	return s.transition(ctx, p, id, ActionReject, reason, isDoctorOf)
}

func (s *Service) Cancel(ctx context.Context, p *auth.Principal, id int64, reason string) (*Appointment, error) {
	return s.transition(ctx, p, id, ActionCancel, reason, isPatientOf)
}

func (s *Service) transition(ctx context.Context, p *auth.Principal, id int64, action Action, reason string, owns func(*auth.Principal, *Appointment) bool) (*Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !owns(p, current) {
		return nil, ErrForbidden
	}

	next, err := NextState(current.Status, action)
	if err != nil {
		return nil, err
	}

	var reasonArg *string
	if r := strings.TrimSpace(reason); r != "" {
		reasonArg = &r
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, next, reasonArg)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("appointment_id", id).Str("from", string(current.Status)).Str("to", string(next)).Str("actor", p.Actor()).Msg("appointment status changed")
	if s.metrics != nil {
		s.metrics.RecordAppointmentTransition(ctx, string(current.Status), string(next))
	}
	s.publish(ctx, messaging.EventAppointmentStatusChanged, updated, string(current.Status), reason)
	return updated, nil
}

// MarkPaid sets the invoice of a completed appointment to Paid. Paying an
// already paid invoice returns it unchanged.
func (s *Service) MarkPaid(ctx context.Context, p *auth.Principal, id int64, req PaymentRequest) (*Appointment, error) {
	if st := strings.TrimSpace(req.InvoiceStatus); st != "" && !strings.EqualFold(st, InvoicePaid) {
		return nil, ErrInvalidInvoiceStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !isDoctorOf(p, current) {
		return nil, ErrForbidden
	}
	if current.InvoiceStatus == nil {
		return nil, ErrNoInvoice
	}
	if *current.InvoiceStatus == InvoicePaid {
		return current, nil
	}

	updated, err := s.repo.SetInvoiceStatus(ctx, id, *current.InvoiceStatus, InvoicePaid)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("appointment_id", id).Str("actor", p.Actor()).Msg("invoice marked paid")
	s.publish(ctx, messaging.EventAppointmentPaid, updated, string(updated.Status), "")
	return updated, nil
}

func (s *Service) publish(ctx context.Context, eventType string, a *Appointment, oldStatus, reason string) {
	data := messaging.AppointmentData{
		AppointmentID:   a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		OldStatus:       oldStatus,
		NewStatus:       string(a.Status),
		AppointmentDate: a.AppointmentDate,
		Reason:          reason,
		ChangedAt:       s.now().UTC(),
	}
	if a.InvoiceStatus != nil {
		data.InvoiceStatus = *a.InvoiceStatus
	}
	if a.InvoiceAmount != nil {
		data.InvoiceAmount = *a.InvoiceAmount
	}
	messaging.PublishBestEffort(ctx, s.publisher, eventType, messaging.AppointmentEvent{
		BaseEvent: messaging.NewBaseEvent(eventType),
		Data:      data,
	})
}
