package admin

import (
	"strings"
	"time"

	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// Admin is an administrator profile joined with its account email and the
// name of the admin who approved it.
type Admin struct {
	ID             int64      `json:"adminId"`
	UserID         int64      `json:"userId"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	Department     string     `json:"department"`
	ContactNo      *string    `json:"contactNo"`
	IsApproved     bool       `json:"isApproved"`
	ApprovedBy     *int64     `json:"approvedBy"`
	ApprovedByName *string    `json:"approvedByName"`
	ApprovedAt     *time.Time `json:"approvedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	softdelete.Fields
}

type ApproveRequest struct {
	ApprovedBy *int64 `json:"approvedBy,omitempty"`
}

type UpdateAdminRequest struct {
	AdminID    int64   `json:"adminId"`
	FullName   *string `json:"fullName,omitempty"`
	Department *string `json:"department,omitempty"`
	ContactNo  *string `json:"contactNo,omitempty"`
}

func (r *UpdateAdminRequest) normalize() error {
	if r.FullName != nil {
		v := strings.TrimSpace(*r.FullName)
		if v == "" {
			return ErrMissingFullName
		}
		r.FullName = &v
	}
	if r.Department != nil {
		v := strings.TrimSpace(*r.Department)
		if v == "" {
			return ErrMissingDepartment
		}
		r.Department = &v
	}
	if r.ContactNo != nil {
		v := strings.TrimSpace(*r.ContactNo)
		r.ContactNo = &v
	}
	return nil
}

// Stats is the admin dashboard summary. Only non-deleted rows are counted.
type Stats struct {
	TotalDoctors          int64 `json:"totalDoctors"`
	TotalPatients         int64 `json:"totalPatients"`
	TotalAppointments     int64 `json:"totalAppointments"`
	PendingAppointments   int64 `json:"pendingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	PendingAdmins         int64 `json:"pendingAdmins"`
}
