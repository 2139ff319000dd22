package doctor

import (
	"strings"
	"time"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// DefaultAvailability is stored when a profile is created without one.
const DefaultAvailability = "Available"

type Doctor struct {
	ID             int64     `json:"docId"`
	UserID         int64     `json:"userId"`
	FullName       string    `json:"fullName"`
	Specialisation string    `json:"specialisation"`
	HPID           string    `json:"hpid"`
	Availability   string    `json:"availability"`
	ContactNo      string    `json:"contactNo"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
	softdelete.Fields
}

// CreateDoctorRequest is the body of both POST /api/Doctors and
// POST /api/Users/{id}/doctor-details. For the latter the user id comes from
// the path.
type CreateDoctorRequest struct {
	UserID         int64  `json:"userId"`
	FullName       string `json:"fullName"`
	Specialisation string `json:"specialisation"`
	HPID           string `json:"hpid"`
	Availability   string `json:"availability,omitempty"`
	ContactNo      string `json:"contactNo"`
}

func (r *CreateDoctorRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Specialisation = strings.TrimSpace(r.Specialisation)
	r.HPID = strings.TrimSpace(r.HPID)
	r.ContactNo = strings.TrimSpace(r.ContactNo)
	r.Availability = strings.TrimSpace(r.Availability)

	switch {
	case r.UserID <= 0:
		return ErrMissingUserID
	case r.FullName == "":
		return ErrMissingFullName
	case r.Specialisation == "":
		return ErrMissingSpecialisation
	case r.HPID == "":
		return ErrMissingHPID
	case r.ContactNo == "":
		return ErrMissingContact
	}
	if r.Availability == "" {
		r.Availability = DefaultAvailability
	}
	return nil
}

// UpdateDoctorRequest changes the fields that are set; the rest keep their
// stored values.
type UpdateDoctorRequest struct {
	DocID          int64   `json:"docId"`
	FullName       *string `json:"fullName,omitempty"`
	Specialisation *string `json:"specialisation,omitempty"`
	HPID           *string `json:"hpid,omitempty"`
	Availability   *string `json:"availability,omitempty"`
	ContactNo      *string `json:"contactNo,omitempty"`
}

func (r *UpdateDoctorRequest) Validate() error {
	fields := []struct {
		v   **string
		err error
	}{
		{&r.FullName, ErrMissingFullName},
		{&r.Specialisation, ErrMissingSpecialisation},
		{&r.HPID, ErrMissingHPID},
		{&r.ContactNo, ErrMissingContact},
		{&r.Availability, nil},
	}
	for _, f := range fields {
		if *f.v == nil {
			continue
		}
		s := strings.TrimSpace(**f.v)
		if s == "" {
			if f.err != nil {
				return f.err
			}
			s = DefaultAvailability
		}
		*f.v = &s
	}
	return nil
}

// ExistsResponse answers the uniqueness probes used by registration forms.
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// PurgeResult describes what a permanent delete removed.
type PurgeResult struct {
	DoctorID     int64
	UserID       int64
	Appointments int64
}
