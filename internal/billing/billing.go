// Package billing computes appointment invoices from a consultation fee and
// prescribed medicine lines. It is pure and shared by every call site that
// needs a bill.
package billing

import (
	"errors"
	"math"
)

// GSTRate is applied to the consultation fee plus medicine cost.
const GSTRate = 0.05

// Upper bounds on a prescribed line. MaxTabletsPerDay covers all six dose
// slots at MaxDosePerSlot.
const (
	MaxDosePerSlot   = 10
	MaxTabletsPerDay = 6 * MaxDosePerSlot
	MaxDays          = 365
)

var (
	ErrNegativeFee       = errors.New("consultation fee must not be negative")
	ErrNegativeDose      = errors.New("dose counts must not be negative")
	ErrNegativeDays      = errors.New("days must not be negative")
	ErrDoseTooHigh       = errors.New("too many tablets per day")
	ErrDaysTooHigh       = errors.New("days exceed the maximum course length")
	ErrNegativePrice     = errors.New("price per tablet must not be negative")
	ErrAmountMismatch    = errors.New("invoice amount does not match the computed bill")
	ErrAmountNotPositive = errors.New("invoice amount must be greater than zero")
)

// Item is one prescribed medicine, reduced to what affects cost.
type Item struct {
	SlNo           int
	Name           string
	TabletsPerDay  int
	Days           int
	PricePerTablet float64
}

// Line is the cost breakdown of one item.
type Line struct {
	SlNo    int     `json:"slNo"`
	Name    string  `json:"name"`
	Tablets int     `json:"tablets"`
	Cost    float64 `json:"cost"`
}

// Bill is the full invoice breakdown.
type Bill struct {
	ConsultationFee float64 `json:"consultationFee"`
	MedicineCost    float64 `json:"medicineCost"`
	Subtotal        float64 `json:"subtotal"`
	GST             float64 `json:"gst"`
	Total           float64 `json:"total"`
	Lines           []Line  `json:"lines"`
}

// Calculate returns the bill for fee and items:
// line cost = tablets per day × days × price, subtotal = fee + Σ line costs,
// GST = 5% of subtotal, total = subtotal + GST. Amounts are rounded to paise.
func Calculate(fee float64, items []Item) (Bill, error) {
	if fee < 0 {
		return Bill{}, ErrNegativeFee
	}

	bill := Bill{ConsultationFee: round(fee), Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		if it.TabletsPerDay < 0 {
			return Bill{}, ErrNegativeDose
		}
		if it.TabletsPerDay > MaxTabletsPerDay {
			return Bill{}, ErrDoseTooHigh
		}
		if it.Days < 0 {
			return Bill{}, ErrNegativeDays
		}
		if it.Days > MaxDays {
			return Bill{}, ErrDaysTooHigh
		}
		if it.PricePerTablet < 0 {
			return Bill{}, ErrNegativePrice
		}
		tablets := it.TabletsPerDay * it.Days
		cost := round(float64(tablets) * it.PricePerTablet)
		bill.Lines = append(bill.Lines, Line{SlNo: it.SlNo, Name: it.Name, Tablets: tablets, Cost: cost})
		bill.MedicineCost += cost
	}

	bill.MedicineCost = round(bill.MedicineCost)
	bill.Subtotal = round(bill.ConsultationFee + bill.MedicineCost)
	bill.GST = round(bill.Subtotal * GSTRate)
	bill.Total = round(bill.Subtotal + bill.GST)
	return bill, nil
}

// VerifyAmount checks a client supplied invoice amount against the bill.
func VerifyAmount(amount float64, bill Bill) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	if math.Abs(round(amount)-bill.Total) >= 0.005 {
		return ErrAmountMismatch
	}
	return nil
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
