package commission

import "github.com/shopspring/decimal"

// DefaultFreeJobThreshold is the number of completed jobs a cleaner works
// commission-free before the platform starts charging.
const DefaultFreeJobThreshold = 20

// DefaultRate returns the platform commission rate (7%).
func DefaultRate() decimal.Decimal {
	rate, err := decimal.NewFromString("0.07")
	if err != nil {
		return decimal.NewFromFloat(0.07)
	}
	return rate
}

type Result struct {
	CommissionAmount int64
	IsFreeJob        bool
}

// Calculate determines the commission owed for a confirmed job. The count is
// the cleaner's completed jobs before this one: while it is under the free-job
// threshold the job is exempt. Amounts are ledger minor units, rounded half
// away from zero.
func Calculate(totalPrice int64, completedJobsBefore, freeJobThreshold int, rate decimal.Decimal) Result {
	if completedJobsBefore < freeJobThreshold {
		return Result{CommissionAmount: 0, IsFreeJob: true}
	}
	amount := decimal.NewFromInt(totalPrice).Mul(rate).Round(0).IntPart()
	return Result{CommissionAmount: amount, IsFreeJob: false}
}
