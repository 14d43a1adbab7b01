package workflow

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/models"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var estimatedCostPercent = decimal.NewFromInt(80)

// ComputeCommission computes and persists the commission for a finalized
// sale. One commission per sale: recomputing requires an explicit
// delete-then-recreate (see RecomputeCommissions).
func ComputeCommission(ctx context.Context, saleId int) (*models.Commission, error) {
	sale, err := models.GetSale(ctx, saleId)
	if err != nil {
		return nil, err
	}
	if sale.Status != models.SaleStatusFinalized {
		return nil, utils.StateErrorf("sale %d is %s, commissions apply to finalized sales", saleId, sale.Status)
	}

	db := config.GetDB()
	var commission *models.Commission
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commission, err = computeCommissionTx(tx, ctx, sale)
		return err
	})
	if err != nil {
		return nil, err
	}
	return commission, nil
}

func computeCommissionTx(tx *gorm.DB, ctx context.Context, sale *models.Sale) (*models.Commission, error) {
	var existing int64
	if err := tx.Model(&models.Commission{}).Where("sale_id = ?", sale.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, utils.StateErrorf("commission already computed for sale %d", sale.ID)
	}

	assignment, err := models.ActiveAssignmentFor(ctx, sale.SalesPersonId, sale.SaleDate)
	if err != nil {
		return nil, err
	}
	scheme, err := models.GetCommissionScheme(ctx, assignment.SchemeId)
	if err != nil {
		return nil, err
	}

	saleAmount := sale.TotalAmount
	cost, known, err := models.SaleCostOfGoods(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	if !known {
		// Documented fallback: estimate cost at 80% of the sale amount
		// when line items carry no purchase cost.
		cost = models.PercentOf(saleAmount, estimatedCostPercent)
		config.LogWarn(config.GetLogger(), "workflow", "computeCommissionTx",
			"no line-item cost data, estimating cost as 80% of sale amount", sale.ID)
	}
	profit := saleAmount.Sub(cost)
	if profit.IsNegative() {
		profit = decimal.Zero
	}

	var tiers []*models.CommissionTier
	var monthUnits int
	monthRevenue := decimal.Zero
	if scheme.Type == models.SchemeTypeTiered {
		if tiers, err = models.SchemeTiers(ctx, scheme.ID); err != nil {
			return nil, err
		}
		if monthUnits, monthRevenue, err = models.MonthlySalesTotals(ctx, sale.SalesPersonId, sale.SaleDate); err != nil {
			return nil, err
		}
	}

	financingDisbursed := false
	if scheme.IncludesFinancingBonus != nil && *scheme.IncludesFinancingBonus {
		if financingDisbursed, err = models.HasDisbursedFinancing(ctx, sale.ID); err != nil {
			return nil, err
		}
	}

	base, financing := models.CalculateCommission(scheme, assignment, tiers, models.CommissionBasis{
		SaleAmount:         saleAmount,
		Profit:             profit,
		MonthUnits:         monthUnits,
		MonthRevenue:       monthRevenue,
		FinancingDisbursed: financingDisbursed,
	})

	commission := &models.Commission{
		SaleId:          sale.ID,
		SalesPersonId:   sale.SalesPersonId,
		SchemeId:        scheme.ID,
		SaleAmount:      saleAmount,
		Profit:          profit,
		AppliedPercent:  models.AppliedPercent(base, saleAmount),
		BaseAmount:      base,
		FinancingAmount: financing,
		TotalAmount:     base.Add(financing),
		Status:          models.CommissionStatusPending,
	}
	if err := tx.Create(commission).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, utils.StateErrorf("commission already computed for sale %d", sale.ID)
		}
		return nil, err
	}
	return commission, nil
}

type RecomputeError struct {
	SaleId int    `json:"sale_id"`
	Error  string `json:"error"`
}

type RecomputeResult struct {
	Succeeded int              `json:"succeeded"`
	Errors    []RecomputeError `json:"errors"`
}

// RecomputeCommissions deletes and recomputes commissions for finalized sales
// in the date range, optionally restricted to one salesperson. Per-sale
// failures are collected and the batch continues; each sale's
// delete-and-recreate stays atomic.
func RecomputeCommissions(ctx context.Context, from, to time.Time, salesPersonId *int) (*RecomputeResult, error) {
	sales, err := models.FinalizedSalesBetween(ctx, from, to, salesPersonId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	result := &RecomputeResult{}
	for _, sale := range sales {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.Commission{}).Error; err != nil {
				return err
			}
			_, err := computeCommissionTx(tx, ctx, sale)
			return err
		})
		if err != nil {
			result.Errors = append(result.Errors, RecomputeError{SaleId: sale.ID, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
