package users

import "errors"

var (
	ErrMissingEmail       = errors.New("email is required")
	ErrInvalidEmail       = errors.New("email is not a valid address")
	ErrMissingPassword    = errors.New("password is required")
	ErrInvalidRole        = errors.New("role must be one of Patient, Doctor, Admin")
	ErrMissingFullName    = errors.New("fullName is required for admin registration")
	ErrMissingDepartment  = errors.New("department is required for admin registration")
	ErrOrgDomainRequired  = errors.New("this role requires an organization email address")
	ErrOrgDomainReserved  = errors.New("organization email domain is reserved for internal use only")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrEmailNotRegistered = errors.New("email is not registered")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrPendingApproval    = errors.New("admin account is pending approval")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrIDMismatch         = errors.New("user id mismatch")
	ErrForbidden          = errors.New("forbidden - insufficient permissions")
)
