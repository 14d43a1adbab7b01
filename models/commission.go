package models

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
)

// Commission is the immutable computed result for one sale. The sale_id
// unique index makes concurrent double-computation fail loudly instead of
// silently duplicating payouts.
type Commission struct {
	ID              int              `gorm:"primary_key" json:"id"`
	SaleId          int              `gorm:"uniqueIndex;not null" json:"sale_id"`
	SalesPersonId   int              `gorm:"index;not null" json:"sales_person_id"`
	SchemeId        int              `gorm:"not null" json:"scheme_id"`
	SaleAmount      decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"sale_amount"`
	Profit          decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"profit"`
	AppliedPercent  decimal.Decimal  `gorm:"type:decimal(10,4);default:0" json:"applied_percent"`
	BaseAmount      decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"base_amount"`
	FinancingAmount decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"financing_amount"`
	TotalAmount     decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	Status          CommissionStatus `gorm:"size:10;default:'Pending'" json:"status"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// CommissionBasis carries everything the dispatch needs, gathered by the
// workflow so the calculation itself stays pure and testable.
type CommissionBasis struct {
	SaleAmount         decimal.Decimal
	Profit             decimal.Decimal
	MonthUnits         int
	MonthRevenue       decimal.Decimal
	FinancingDisbursed bool
}

// CalculateCommission dispatches on the scheme type and returns the base and
// financing components, both already rounded to money precision.
func CalculateCommission(scheme *CommissionScheme, assignment *SchemeAssignment, tiers []*CommissionTier, basis CommissionBasis) (base, financing decimal.Decimal) {
	percent := scheme.BasePercent
	if assignment.CustomPercent != nil {
		percent = *assignment.CustomPercent
	}

	switch scheme.Type {
	case SchemeTypePercentOfSale:
		base = PercentOf(basis.SaleAmount, percent)
	case SchemeTypePercentOfProfit:
		base = PercentOf(basis.Profit, percent)
	case SchemeTypeFixedAmount:
		base = RoundMoney(scheme.FixedAmount)
	case SchemeTypeTiered:
		if tier := MatchTier(tiers, basis.MonthUnits, basis.MonthRevenue); tier != nil {
			base = PercentOf(basis.SaleAmount, tier.Percent).Add(RoundMoney(tier.FixedBonus))
		} else {
			// no bracket matched: fall back to the scheme's flat terms
			base = PercentOf(basis.SaleAmount, scheme.BasePercent).Add(RoundMoney(scheme.FixedAmount))
		}
	}

	if scheme.IncludesFinancingBonus != nil && *scheme.IncludesFinancingBonus && basis.FinancingDisbursed {
		financing = PercentOf(basis.SaleAmount, scheme.FinancingPercent)
	} else {
		financing = decimal.Zero
	}
	return base, financing
}

// MatchTier returns the first tier whose unit and revenue brackets both
// contain the cumulative monthly values. Lower bounds inclusive, upper bounds
// inclusive or unbounded when nil.
func MatchTier(tiers []*CommissionTier, units int, revenue decimal.Decimal) *CommissionTier {
	for _, tier := range tiers {
		if units < tier.FromUnits {
			continue
		}
		if tier.ToUnits != nil && units > *tier.ToUnits {
			continue
		}
		if revenue.LessThan(tier.FromAmount) {
			continue
		}
		if tier.ToAmount != nil && revenue.GreaterThan(*tier.ToAmount) {
			continue
		}
		return tier
	}
	return nil
}

// AppliedPercent derives the audit-only effective percentage of the base
// commission over the sale amount.
func AppliedPercent(base, saleAmount decimal.Decimal) decimal.Decimal {
	if saleAmount.IsZero() {
		return decimal.Zero
	}
	return base.Div(saleAmount).Mul(oneHundred).Round(4)
}

func GetCommissionForSale(ctx context.Context, saleId int) (*Commission, error) {
	db := config.GetDB()
	var commissions []*Commission
	if err := db.WithContext(ctx).Where("sale_id = ?", saleId).Limit(1).Find(&commissions).Error; err != nil {
		return nil, err
	}
	if len(commissions) == 0 {
		return nil, utils.NotFoundErrorf("commission for sale %d", saleId)
	}
	return commissions[0], nil
}

func CommissionsForSalesPerson(ctx context.Context, salesPersonId int, from, to time.Time) ([]*Commission, error) {
	db := config.GetDB()
	var results []*Commission
	err := db.WithContext(ctx).
		Where("sales_person_id = ? AND created_at >= ? AND created_at <= ?", salesPersonId, from, to).
		Order("created_at").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ApproveCommission moves Pending -> Approved.
func ApproveCommission(ctx context.Context, id int) (*Commission, error) {
	commission, err := utils.FetchSingleModel[Commission](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("commission %d", id)
	}
	if commission.Status != CommissionStatusPending {
		return nil, utils.StateErrorf("commission %d is %s, only pending commissions can be approved", id, commission.Status)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(commission).Update("status", CommissionStatusApproved).Error; err != nil {
		return nil, err
	}
	commission.Status = CommissionStatusApproved
	return commission, nil
}

// MarkCommissionPaid moves Approved -> Paid.
func MarkCommissionPaid(ctx context.Context, id int) (*Commission, error) {
	commission, err := utils.FetchSingleModel[Commission](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("commission %d", id)
	}
	if commission.Status != CommissionStatusApproved {
		return nil, utils.StateErrorf("commission %d is %s, only approved commissions can be paid", id, commission.Status)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(commission).Update("status", CommissionStatusPaid).Error; err != nil {
		return nil, err
	}
	commission.Status = CommissionStatusPaid
	return commission, nil
}
