package models

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// RoundMoney rounds to 2 decimal places. decimal.Round is half-away-from-zero,
// which is half-up for the non-negative amounts this engine works with.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentOf returns amount * percent / 100 rounded to money precision.
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(percent).Div(oneHundred))
}
