package admin

import "errors"

var (
	ErrAdminNotFound       = errors.New("admin not found")
	ErrAlreadyApproved     = errors.New("admin is already approved")
	ErrApproverNotFound    = errors.New("approver not found")
	ErrApproverNotApproved = errors.New("approver is not an approved admin")
	ErrApproverMismatch    = errors.New("approvedBy does not match the authenticated admin")
	ErrIDMismatch          = errors.New("admin id mismatch")
	ErrMissingFullName     = errors.New("fullName cannot be empty")
	ErrMissingDepartment   = errors.New("department cannot be empty")
	ErrSelfDelete          = errors.New("admins cannot delete their own profile")
	ErrForbidden           = errors.New("forbidden - insufficient permissions")
)
