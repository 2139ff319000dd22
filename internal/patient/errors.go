package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotPatient      = errors.New("user is not registered as a patient")
	ErrDetailsExist    = errors.New("patient details already exist for this user")
	ErrContactTaken    = errors.New("contact number is already registered to another patient")
	ErrAadhaarTaken    = errors.New("aadhaar number is already registered to another patient")
	ErrIDMismatch      = errors.New("patient id mismatch")
	ErrMissingUserID   = errors.New("userId is required")
	ErrMissingFullName = errors.New("fullName is required")
	ErrMissingDOB      = errors.New("dob is required")
	ErrDOBInFuture     = errors.New("dob cannot be in the future")
	ErrInvalidGender   = errors.New("gender must be one of Male, Female, Other")
	ErrMissingContact  = errors.New("contactNo is required")
	ErrMissingAddress  = errors.New("address is required")
	ErrInvalidAadhaar  = errors.New("aadhaar_no must be 12 digits")
	ErrForbidden       = errors.New("forbidden - insufficient permissions")
)
