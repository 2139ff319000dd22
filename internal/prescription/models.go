package prescription

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/swasthatech/hospital-service/internal/billing"
)

// MedicineLine is one prescribed medicine with its dose per time slot.
type MedicineLine struct {
	SlNo            int     `json:"slNo"`
	MedicineID      int64   `json:"medicineID"`
	Name            string  `json:"name"`
	PricePerTablet  float64 `json:"pricePerTablet"`
	MorningBefore   int     `json:"morningBefore"`
	MorningAfter    int     `json:"morningAfter"`
	AfternoonBefore int     `json:"afternoonBefore"`
	AfternoonAfter  int     `json:"afternoonAfter"`
	NightBefore     int     `json:"nightBefore"`
	NightAfter      int     `json:"nightAfter"`
	Days            int     `json:"days"`
}

// TabletsPerDay sums the six dose slots.
func (l MedicineLine) TabletsPerDay() int {
	return l.MorningBefore + l.MorningAfter + l.AfternoonBefore + l.AfternoonAfter + l.NightBefore + l.NightAfter
}

func (l MedicineLine) validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w %d: name is required", ErrInvalidLine, l.SlNo)
	}
	for _, n := range []int{l.MorningBefore, l.MorningAfter, l.AfternoonBefore, l.AfternoonAfter, l.NightBefore, l.NightAfter} {
		if n < 0 {
			return fmt.Errorf("%w %d: dose counts must not be negative", ErrInvalidLine, l.SlNo)
		}
		if n > billing.MaxDosePerSlot {
			return fmt.Errorf("%w %d: at most %d tablets per dose", ErrInvalidLine, l.SlNo, billing.MaxDosePerSlot)
		}
	}
	if l.Days < 0 {
		return fmt.Errorf("%w %d: days must not be negative", ErrInvalidLine, l.SlNo)
	}
	if l.Days > billing.MaxDays {
		return fmt.Errorf("%w %d: at most %d days", ErrInvalidLine, l.SlNo, billing.MaxDays)
	}
	if l.PricePerTablet < 0 {
		return fmt.Errorf("%w %d: price must not be negative", ErrInvalidLine, l.SlNo)
	}
	return nil
}

// Lines is a medicine list kept in slNo order.
type Lines []MedicineLine

func (ls Lines) validate() error {
	for _, l := range ls {
		if err := l.validate(); err != nil {
			return err
		}
	}
	return nil
}

// sorted returns a copy ordered by slNo; lines sharing a number keep their
// relative order.
func (ls Lines) sorted() Lines {
	out := make(Lines, len(ls))
	copy(out, ls)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SlNo < out[j].SlNo })
	return out
}

// Summary is the comma separated list of names stored on the appointment.
func (ls Lines) Summary() string {
	names := make([]string, 0, len(ls))
	for _, l := range ls {
		names = append(names, strings.TrimSpace(l.Name))
	}
	return strings.Join(names, ", ")
}

func (ls Lines) billingItems() []billing.Item {
	items := make([]billing.Item, 0, len(ls))
	for _, l := range ls {
		items = append(items, billing.Item{
			SlNo:           l.SlNo,
			Name:           l.Name,
			TabletsPerDay:  l.TabletsPerDay(),
			Days:           l.Days,
			PricePerTablet: l.PricePerTablet,
		})
	}
	return items
}

type Prescription struct {
	ID              int64     `json:"prescriptionId"`
	AppointmentID   int64     `json:"appointmentId"`
	Diagnosis       string    `json:"diagnosis"`
	Medicines       Lines     `json:"medicines"`
	ChiefComplaints string    `json:"chiefComplaints"`
	PastHistory     string    `json:"pastHistory"`
	Examination     string    `json:"examination"`
	Advice          string    `json:"advice"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Fields holds the clinical fields shared by create, update and
// save-with-completion. A nil field is left as stored; a nil Medicines
// keeps the stored list.
type Fields struct {
	Diagnosis       *string `json:"diagnosis"`
	Medicines       *Lines  `json:"medicines"`
	ChiefComplaints *string `json:"chiefComplaints"`
	PastHistory     *string `json:"pastHistory"`
	Examination     *string `json:"examination"`
	Advice          *string `json:"advice"`
}

func (f *Fields) normalize() error {
	if f.Medicines != nil {
		if err := f.Medicines.validate(); err != nil {
			return err
		}
		sorted := f.Medicines.sorted()
		f.Medicines = &sorted
	}
	return nil
}

func (f Fields) lines() Lines {
	if f.Medicines == nil {
		return Lines{}
	}
	return *f.Medicines
}

type CreatePrescriptionRequest struct {
	AppointmentID int64 `json:"appointmentId"`
	Fields
}

type UpdatePrescriptionRequest struct {
	PrescriptionID int64 `json:"prescriptionId"`
	Fields
}

// CompletionRequest is the body of POST /api/Prescriptions/save-with-completion.
// When ConsultationFee is set the invoice amount must equal the computed bill.
type CompletionRequest struct {
	AppointmentID int64 `json:"appointmentId"`
	Fields
	InvoiceAmount   float64  `json:"invoiceAmount"`
	ConsultationFee *float64 `json:"consultationFee,omitempty"`
}

// Completion is what the store reports after completing an appointment.
type Completion struct {
	Prescription    *Prescription
	PatientID       int64
	DoctorID        int64
	AppointmentDate time.Time
	PreviousStatus  string
}

type CompletionResult struct {
	Prescription  *Prescription `json:"prescription"`
	InvoiceAmount float64       `json:"invoiceAmount"`
	Bill          *billing.Bill `json:"bill,omitempty"`
}

type BillRequest struct {
	ConsultationFee *float64 `json:"consultationFee,omitempty"`
	Medicines       Lines    `json:"medicines"`
}

// Parties identifies who an appointment belongs to.
type Parties struct {
	PatientID int64
	DoctorID  int64
}

type PatientInfo struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	ContactNo string `json:"contactNo"`
}

type DoctorInfo struct {
	Name           string `json:"name"`
	Specialisation string `json:"specialisation"`
	HPID           string `json:"hpid"`
}

// PDFData is everything a client needs to render a printable prescription.
type PDFData struct {
	Prescription    *Prescription `json:"prescription"`
	PatientInfo     PatientInfo   `json:"patientInfo"`
	DoctorInfo      DoctorInfo    `json:"doctorInfo"`
	AppointmentDate time.Time     `json:"appointmentDate"`
	InvoiceAmount   *float64      `json:"invoiceAmount"`
	Bill            *billing.Bill `json:"bill,omitempty"`

	patientID int64
	doctorID  int64
	dob       time.Time
}
