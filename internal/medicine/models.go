package medicine

// Medicine is one entry of the static catalog.
type Medicine struct {
	ID             int64   `json:"medicineID"`
	Name           string  `json:"name"`
	Specialization string  `json:"specialization"`
	PricePerTablet float64 `json:"pricePerTablet"`
	GenericName    *string `json:"genericName,omitempty"`
}
