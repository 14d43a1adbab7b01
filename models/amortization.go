package models

import (
	"math"

	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
)

type AmortizationInput struct {
	TotalAmount       decimal.Decimal
	DownPayment       decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
}

// AmortizationRow is one period of the informational amortization table.
// The final row absorbs rounding drift so the balance lands on exactly zero.
type AmortizationRow struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type AmortizationResult struct {
	Installment     decimal.Decimal   `json:"installment"`
	FinancedAmount  decimal.Decimal   `json:"financed_amount"`
	TotalOfPayments decimal.Decimal   `json:"total_of_payments"`
	TotalInterest   decimal.Decimal   `json:"total_interest"`
	TotalToPay      decimal.Decimal   `json:"total_to_pay"`
	Rows            []AmortizationRow `json:"rows"`
}

// CalculateAmortization builds a French (equal-installment) schedule for a
// financed sale. Rate arithmetic runs at higher precision; every monetary
// figure is rounded to 2 decimals at the boundary.
func CalculateAmortization(in AmortizationInput) (*AmortizationResult, error) {
	if in.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, utils.ValidationErrorf("total amount must be positive")
	}
	if in.DownPayment.IsNegative() {
		return nil, utils.ValidationErrorf("down payment cannot be negative")
	}
	if in.DownPayment.GreaterThanOrEqual(in.TotalAmount) {
		return nil, utils.ValidationErrorf("down payment must be less than total amount")
	}
	if in.AnnualRatePercent.IsNegative() {
		return nil, utils.ValidationErrorf("annual rate cannot be negative")
	}
	if in.TermMonths <= 0 {
		return nil, utils.ValidationErrorf("term must be at least one month")
	}

	financed := in.TotalAmount.Sub(in.DownPayment)

	// monthly rate = annual% / 100 / 12
	monthlyRate := in.AnnualRatePercent.Div(decimal.NewFromInt(1200))

	var installment decimal.Decimal
	if monthlyRate.IsZero() {
		installment = RoundMoney(financed.Div(decimal.NewFromInt(int64(in.TermMonths))))
	} else {
		// installment = P * i * (1+i)^n / ((1+i)^n - 1)
		rf := monthlyRate.InexactFloat64()
		factor := math.Pow(1+rf, float64(in.TermMonths))
		installment = RoundMoney(decimal.NewFromFloat(financed.InexactFloat64() * rf * factor / (factor - 1)))
	}

	rows := make([]AmortizationRow, 0, in.TermMonths)
	remaining := financed
	totalOfPayments := decimal.Zero

	for month := 1; month <= in.TermMonths; month++ {
		interest := RoundMoney(remaining.Mul(monthlyRate))
		principal := installment.Sub(interest)
		payment := installment
		if month == in.TermMonths {
			// Force the balance to exactly zero, absorbing rounding drift.
			principal = remaining
			payment = principal.Add(interest)
		}
		remaining = remaining.Sub(principal)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		totalOfPayments = totalOfPayments.Add(payment)
		rows = append(rows, AmortizationRow{
			Month:     month,
			Payment:   payment,
			Principal: principal,
			Interest:  interest,
			Balance:   remaining,
		})
	}

	return &AmortizationResult{
		Installment:     installment,
		FinancedAmount:  financed,
		TotalOfPayments: totalOfPayments,
		TotalInterest:   totalOfPayments.Sub(financed),
		TotalToPay:      totalOfPayments.Add(in.DownPayment),
		Rows:            rows,
	}, nil
}
