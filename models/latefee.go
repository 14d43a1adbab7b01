package models

import (
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type LateFeeMode string

const (
	LateFeeModeDailyPercent LateFeeMode = "DailyPercent"
	LateFeeModeFlatMonthly  LateFeeMode = "FlatMonthly"
)

// LateFeePolicy is the mora configuration point. It is environment-driven so
// each deployment can set its own penalty rule without a code change.
type LateFeePolicy struct {
	Mode      LateFeeMode
	GraceDays int
	// DailyPercent of the outstanding balance, accrued per day overdue.
	DailyPercent decimal.Decimal
	// FlatPerMonth charged per started 30-day period overdue.
	FlatPerMonth decimal.Decimal
	// CapPercent caps the accrued fee at a share of the outstanding balance.
	// Zero means uncapped.
	CapPercent decimal.Decimal
}

func DefaultLateFeePolicy() LateFeePolicy {
	return LateFeePolicy{
		Mode:         LateFeeModeDailyPercent,
		GraceDays:    0,
		DailyPercent: decimal.RequireFromString("0.1"),
		CapPercent:   decimal.NewFromInt(20),
	}
}

// LateFeePolicyFromEnv reads LATE_FEE_MODE, LATE_FEE_GRACE_DAYS,
// LATE_FEE_DAILY_PERCENT, LATE_FEE_FLAT_PER_MONTH and LATE_FEE_CAP_PERCENT,
// falling back to the default policy for anything unset or malformed.
func LateFeePolicyFromEnv() LateFeePolicy {
	policy := DefaultLateFeePolicy()

	switch strings.TrimSpace(os.Getenv("LATE_FEE_MODE")) {
	case string(LateFeeModeFlatMonthly):
		policy.Mode = LateFeeModeFlatMonthly
	case string(LateFeeModeDailyPercent):
		policy.Mode = LateFeeModeDailyPercent
	}
	if v := strings.TrimSpace(os.Getenv("LATE_FEE_GRACE_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			policy.GraceDays = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LATE_FEE_DAILY_PERCENT")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			policy.DailyPercent = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("LATE_FEE_FLAT_PER_MONTH")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			policy.FlatPerMonth = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("LATE_FEE_CAP_PERCENT")); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			policy.CapPercent = d
		}
	}
	return policy
}

// FeeFor computes the accrued mora on an overdue balance. Inside the grace
// window the fee is zero; past it the full overdue duration accrues.
func (p LateFeePolicy) FeeFor(balanceDue decimal.Decimal, daysOverdue int) decimal.Decimal {
	if daysOverdue <= p.GraceDays || balanceDue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var fee decimal.Decimal
	switch p.Mode {
	case LateFeeModeFlatMonthly:
		months := (daysOverdue + 29) / 30
		fee = RoundMoney(p.FlatPerMonth.Mul(decimal.NewFromInt(int64(months))))
	default:
		fee = RoundMoney(balanceDue.Mul(p.DailyPercent).Mul(decimal.NewFromInt(int64(daysOverdue))).Div(oneHundred))
	}

	if p.CapPercent.IsPositive() {
		cap := PercentOf(balanceDue, p.CapPercent)
		if fee.GreaterThan(cap) {
			fee = cap
		}
	}
	return fee
}
