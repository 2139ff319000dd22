package doctor

import "errors"

var (
	ErrDoctorNotFound        = errors.New("doctor not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrNotDoctorAccount      = errors.New("user is not registered as a doctor")
	ErrDetailsExist          = errors.New("doctor details already exist for this user")
	ErrContactTaken          = errors.New("contact number is already registered to another doctor")
	ErrHPIDTaken             = errors.New("HPID is already registered to another doctor")
	ErrIDMismatch            = errors.New("doctor id mismatch")
	ErrMissingUserID         = errors.New("userId is required")
	ErrMissingFullName       = errors.New("fullName is required")
	ErrMissingSpecialisation = errors.New("specialisation is required")
	ErrMissingHPID           = errors.New("hpid is required")
	ErrMissingContact        = errors.New("contactNo is required")
	ErrMissingSpecialization = errors.New("specialization is required")
	ErrForbidden             = errors.New("forbidden - insufficient permissions")
)
