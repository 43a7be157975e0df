package payroll

import "github.com/shopspring/decimal"

// NetSalary is base + overtime + bonuses - deductions, rounded to cents.
func NetSalary(base, overtime, bonuses, deductions decimal.Decimal) decimal.Decimal {
	return base.Add(overtime).Add(bonuses).Sub(deductions).Round(2)
}

func validateInput(in RecordInput) error {
	if in.Month < 1 || in.Month > 12 || in.Year < 1900 {
		return ErrInvalidPeriod
	}
	for _, amount := range []decimal.Decimal{in.BaseSalary, in.Overtime, in.Deductions, in.Bonuses} {
		if amount.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// CanTransition allows draft -> approved -> paid only.
func CanTransition(from, to string) bool {
	switch from {
	case StatusDraft:
		return to == StatusApproved
	case StatusApproved:
		return to == StatusPaid
	}
	return false
}

// DocumentKey is the object path of a record's document.
func DocumentKey(recordID string) string {
	return "payroll/" + recordID + ".pdf"
}
