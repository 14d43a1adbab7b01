package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func boolPtr(b bool) *bool { return &b }

func TestCalculateCommission_PercentOfSale(t *testing.T) {
	scheme := &CommissionScheme{
		Type:                   SchemeTypePercentOfSale,
		BasePercent:            d("5"),
		FinancingPercent:       d("2"),
		IncludesFinancingBonus: boolPtr(true),
	}
	assignment := &SchemeAssignment{}

	base, financing := CalculateCommission(scheme, assignment, nil, CommissionBasis{
		SaleAmount:         d("250000"),
		FinancingDisbursed: true,
	})
	if got := base.StringFixed(2); got != "12500.00" {
		t.Fatalf("base expected 12500.00, got %s", got)
	}
	if got := financing.StringFixed(2); got != "5000.00" {
		t.Fatalf("financing expected 5000.00, got %s", got)
	}

	// no disbursed financing, no bonus
	_, financing = CalculateCommission(scheme, assignment, nil, CommissionBasis{
		SaleAmount: d("250000"),
	})
	if !financing.IsZero() {
		t.Fatalf("financing expected 0 without disbursement, got %s", financing.String())
	}

	// scheme without the bonus pays none even when financing was disbursed
	scheme.IncludesFinancingBonus = boolPtr(false)
	_, financing = CalculateCommission(scheme, assignment, nil, CommissionBasis{
		SaleAmount:         d("250000"),
		FinancingDisbursed: true,
	})
	if !financing.IsZero() {
		t.Fatalf("financing expected 0 for scheme without bonus, got %s", financing.String())
	}
}

func TestCalculateCommission_CustomPercentOverride(t *testing.T) {
	scheme := &CommissionScheme{
		Type:        SchemeTypePercentOfSale,
		BasePercent: d("5"),
	}
	assignment := &SchemeAssignment{CustomPercent: decPtr("3.5")}

	base, _ := CalculateCommission(scheme, assignment, nil, CommissionBasis{SaleAmount: d("250000")})
	if got := base.StringFixed(2); got != "8750.00" {
		t.Fatalf("base expected 8750.00 with 3.5%% override, got %s", got)
	}
}

func TestCalculateCommission_PercentOfProfit(t *testing.T) {
	scheme := &CommissionScheme{
		Type:        SchemeTypePercentOfProfit,
		BasePercent: d("10"),
	}

	base, _ := CalculateCommission(scheme, &SchemeAssignment{}, nil, CommissionBasis{
		SaleAmount: d("250000"),
		Profit:     d("60000"),
	})
	if got := base.StringFixed(2); got != "6000.00" {
		t.Fatalf("base expected 6000.00, got %s", got)
	}
}

func TestCalculateCommission_FixedAmount(t *testing.T) {
	scheme := &CommissionScheme{
		Type:        SchemeTypeFixedAmount,
		FixedAmount: d("1500"),
	}

	base, _ := CalculateCommission(scheme, &SchemeAssignment{}, nil, CommissionBasis{SaleAmount: d("250000")})
	if got := base.StringFixed(2); got != "1500.00" {
		t.Fatalf("base expected 1500.00, got %s", got)
	}
}

func TestCalculateCommission_Tiered(t *testing.T) {
	scheme := &CommissionScheme{
		Type:        SchemeTypeTiered,
		BasePercent: d("3"),
	}
	tiers := []*CommissionTier{
		{FromUnits: 5, FromAmount: d("1000000"), Percent: d("7"), FixedBonus: d("500")},
	}

	base, _ := CalculateCommission(scheme, &SchemeAssignment{}, tiers, CommissionBasis{
		SaleAmount:   d("300000"),
		MonthUnits:   5,
		MonthRevenue: d("1200000"),
	})
	if got := base.StringFixed(2); got != "21500.00" {
		t.Fatalf("tiered base expected 21500.00, got %s", got)
	}

	// below every bracket: falls back to the scheme's flat terms
	base, _ = CalculateCommission(scheme, &SchemeAssignment{}, tiers, CommissionBasis{
		SaleAmount:   d("300000"),
		MonthUnits:   2,
		MonthRevenue: d("400000"),
	})
	if got := base.StringFixed(2); got != "9000.00" {
		t.Fatalf("tiered fallback expected 9000.00, got %s", got)
	}
}

func TestMatchTier(t *testing.T) {
	tiers := []*CommissionTier{
		{ID: 1, FromUnits: 0, ToUnits: intPtr(4), FromAmount: d("0"), ToAmount: decPtr("999999.99"), Percent: d("3")},
		{ID: 2, FromUnits: 5, ToUnits: intPtr(9), FromAmount: d("1000000"), ToAmount: decPtr("2999999.99"), Percent: d("5")},
		{ID: 3, FromUnits: 10, FromAmount: d("3000000"), Percent: d("7")},
	}

	cases := []struct {
		name       string
		units      int
		revenue    string
		expectedId int
	}{
		{"lower bound inclusive", 5, "1000000", 2},
		{"upper bound inclusive", 9, "2999999.99", 2},
		{"nil upper bound unbounded", 50, "9000000", 3},
		{"first bracket", 0, "0", 1},
		{"units fit but revenue below bracket", 5, "500000", 0},
		{"revenue fits but units below bracket", 3, "1500000", 0},
	}
	for _, tc := range cases {
		tier := MatchTier(tiers, tc.units, d(tc.revenue))
		if tc.expectedId == 0 {
			if tier != nil {
				t.Fatalf("%s: expected no match, got tier %d", tc.name, tier.ID)
			}
			continue
		}
		if tier == nil {
			t.Fatalf("%s: expected tier %d, got no match", tc.name, tc.expectedId)
		}
		if tier.ID != tc.expectedId {
			t.Fatalf("%s: expected tier %d, got %d", tc.name, tc.expectedId, tier.ID)
		}
	}
}

func TestAppliedPercent(t *testing.T) {
	if got := AppliedPercent(d("12500"), d("250000")).String(); got != "5" {
		t.Fatalf("expected 5, got %s", got)
	}
	if got := AppliedPercent(d("21500"), d("300000")).StringFixed(4); got != "7.1667" {
		t.Fatalf("expected 7.1667, got %s", got)
	}
	if !AppliedPercent(d("1500"), decimal.Zero).IsZero() {
		t.Fatalf("zero sale amount must yield zero applied percent")
	}
}
