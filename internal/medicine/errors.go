package medicine

import "errors"

var (
	ErrMedicineNotFound      = errors.New("medicine not found")
	ErrMissingSpecialization = errors.New("specialization is required")
)
