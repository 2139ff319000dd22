package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/swasthatech/hospital-service/internal/auth"
	"github.com/swasthatech/hospital-service/internal/softdelete"
)

// User is an account. The password hash never leaves the package.
type User struct {
	ID        int64      `json:"userId"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	softdelete.Fields

	passwordHash string
}

// RegisterRequest is the signup body. The password travels in pswdHash for
// compatibility with existing clients; it is plaintext and hashed here.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"pswdHash"`
	Role       string `json:"role"`
	FullName   string `json:"fullName,omitempty"`
	Department string `json:"department,omitempty"`
	ContactNo  string `json:"contactNo,omitempty"`
}

// AdminProfile is created together with an Admin account.
type AdminProfile struct {
	FullName   string
	Department string
	ContactNo  string
	// Approved is only set when bootstrapping the first admin.
	Approved bool
}

type RegisterResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	User      *User      `json:"user"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"pswdHash"`
}

type LoginResponse struct {
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"fullName,omitempty"`
	DoctorID  *int64    `json:"doctorId,omitempty"`
	PatientID *int64    `json:"patientId,omitempty"`
	AdminID   *int64    `json:"adminId,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginProfile is the role profile linked to an account.
type LoginProfile struct {
	ProfileID  int64
	FullName   string
	IsApproved bool
}

type UpdateUserRequest struct {
	UserID   int64   `json:"userId"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"pswdHash,omitempty"`
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRole maps any letter case onto the canonical role name.
func NormalizeRole(role string) (string, error) {
	for _, r := range []string{auth.RolePatient, auth.RoleDoctor, auth.RoleAdmin} {
		if strings.EqualFold(strings.TrimSpace(role), r) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

func validateEmail(email string) error {
	if email == "" {
		return ErrMissingEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// CheckEmailDomain enforces the organization domain rule: Admin and Doctor
// accounts must use orgDomain, Patient accounts must not.
func CheckEmailDomain(email, role, orgDomain string) error {
	if orgDomain == "" {
		return nil
	}
	internal := strings.HasSuffix(email, "@"+strings.ToLower(orgDomain))
	switch role {
	case auth.RoleAdmin, auth.RoleDoctor:
		if !internal {
			return fmt.Errorf("%w: %s accounts must use an @%s email", ErrOrgDomainRequired, role, orgDomain)
		}
	case auth.RolePatient:
		if internal {
			return fmt.Errorf("%w: @%s", ErrOrgDomainReserved, orgDomain)
		}
	}
	return nil
}
