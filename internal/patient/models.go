package patient

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

const dateLayout = "2006-01-02"

// Date is a calendar date carried as "YYYY-MM-DD" on the wire.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	// Accept a full timestamp too; only the date part is kept.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// AgeOn returns the age in whole years on the given day.
func AgeOn(dob Date, today time.Time) int {
	if dob.IsZero() {
		return 0
	}
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

type Patient struct {
	ID               int64     `json:"patientId"`
	UserID           int64     `json:"userId"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	DOB              Date      `json:"dob"`
	Age              int       `json:"age"`
	Gender           string    `json:"gender"`
	ContactNo        string    `json:"contactNo"`
	Address          string    `json:"address"`
	AadhaarNo        string    `json:"aadhaar_no"`
	CreatedAt        time.Time `json:"createdAt"`
	AccountCreatedAt time.Time `json:"accountCreatedAt"`
	softdelete.Fields
}

// ListOrder picks the ordering of patient listings.
type ListOrder int

const (
	OrderByName ListOrder = iota
	OrderByNewest
)

func (o ListOrder) clause() string {
	if o == OrderByNewest {
		return "u.created_at DESC"
	}
	return "p.full_name"
}

// CreatePatientRequest is the body of both POST /api/Patients and
// POST /api/Users/{id}/patient-details.
type CreatePatientRequest struct {
	UserID    int64  `json:"userId"`
	FullName  string `json:"fullName"`
	DOB       Date   `json:"dob"`
	Gender    string `json:"gender"`
	ContactNo string `json:"contactNo"`
	Address   string `json:"address"`
	AadhaarNo string `json:"aadhaar_no"`
}

func (r *CreatePatientRequest) Validate(today time.Time) error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.ContactNo = strings.TrimSpace(r.ContactNo)
	r.Address = strings.TrimSpace(r.Address)
	r.AadhaarNo = strings.TrimSpace(r.AadhaarNo)

	if r.UserID <= 0 {
		return ErrMissingUserID
	}
	if r.FullName == "" {
		return ErrMissingFullName
	}
	if err := validateDOB(r.DOB, today); err != nil {
		return err
	}
	g, err := normalizeGender(r.Gender)
	if err != nil {
		return err
	}
	r.Gender = g
	if r.ContactNo == "" {
		return ErrMissingContact
	}
	if r.Address == "" {
		return ErrMissingAddress
	}
	return validateAadhaar(r.AadhaarNo)
}

// UpdatePatientRequest changes the fields that are set; the rest keep their
// stored values.
type UpdatePatientRequest struct {
	PatientID int64   `json:"patientId"`
	FullName  *string `json:"fullName,omitempty"`
	DOB       *Date   `json:"dob,omitempty"`
	Gender    *string `json:"gender,omitempty"`
	ContactNo *string `json:"contactNo,omitempty"`
	Address   *string `json:"address,omitempty"`
	AadhaarNo *string `json:"aadhaar_no,omitempty"`
}

func (r *UpdatePatientRequest) Validate(today time.Time) error {
	trim := func(p **string, err error) error {
		if *p == nil {
			return nil
		}
		s := strings.TrimSpace(**p)
		if s == "" {
			return err
		}
		*p = &s
		return nil
	}
	if err := trim(&r.FullName, ErrMissingFullName); err != nil {
		return err
	}
	if err := trim(&r.ContactNo, ErrMissingContact); err != nil {
		return err
	}
	if err := trim(&r.Address, ErrMissingAddress); err != nil {
		return err
	}
	if r.DOB != nil {
		if err := validateDOB(*r.DOB, today); err != nil {
			return err
		}
	}
	if r.Gender != nil {
		g, err := normalizeGender(*r.Gender)
		if err != nil {
			return err
		}
		r.Gender = &g
	}
	if r.AadhaarNo != nil {
		s := strings.TrimSpace(*r.AadhaarNo)
		if err := validateAadhaar(s); err != nil {
			return err
		}
		r.AadhaarNo = &s
	}
	return nil
}

func validateDOB(dob Date, today time.Time) error {
	if dob.IsZero() {
		return ErrMissingDOB
	}
	if dob.After(today) {
		return ErrDOBInFuture
	}
	return nil
}

func normalizeGender(g string) (string, error) {
	for _, v := range []string{"Male", "Female", "Other"} {
		if strings.EqualFold(strings.TrimSpace(g), v) {
			return v, nil
		}
	}
	return "", ErrInvalidGender
}

func validateAadhaar(s string) error {
	if len(s) != 12 {
		return ErrInvalidAadhaar
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return ErrInvalidAadhaar
		}
	}
	return nil
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// PurgeResult describes what a permanent delete removed.
type PurgeResult struct {
	PatientID    int64
	UserID       int64
	Appointments int64
}
