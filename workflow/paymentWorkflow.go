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

// PaymentTarget routes a payment either at a single installment or at the
// sale level, where it is applied first-due-first-paid.
type PaymentTarget struct {
	InstallmentId int
	SaleId        int
}

type paymentAllocation struct {
	installment *models.Installment
	amount      decimal.Decimal
}

// allocatePayment splits an amount across unpaid installments in due order.
// Paying more than the total outstanding balance is rejected: overpayments
// carry no defined semantics in this ledger.
func allocatePayment(installments []*models.Installment, amount decimal.Decimal) ([]paymentAllocation, error) {
	if !amount.IsPositive() {
		return nil, utils.ValidationErrorf("payment amount must be positive")
	}

	remaining := amount
	var allocations []paymentAllocation
	for _, installment := range installments {
		if remaining.IsZero() {
			break
		}
		due := installment.BalanceDue()
		if !due.IsPositive() {
			continue
		}
		applied := due
		if remaining.LessThan(due) {
			applied = remaining
		}
		allocations = append(allocations, paymentAllocation{installment: installment, amount: applied})
		remaining = remaining.Sub(applied)
	}
	if remaining.IsPositive() {
		return nil, utils.ValidationErrorf("the amount entered is more than the outstanding balance")
	}
	return allocations, nil
}

// RecordPayment applies a payment and recomputes installment status inside a
// single transaction. Returns every installment the payment touched.
func RecordPayment(ctx context.Context, target PaymentTarget, amount decimal.Decimal, date time.Time) ([]*models.Installment, error) {
	if target.InstallmentId == 0 && target.SaleId == 0 {
		return nil, utils.ValidationErrorf("payment target must name an installment or a sale")
	}

	var installments []*models.Installment
	var err error
	if target.InstallmentId > 0 {
		installment, ferr := utils.FetchSingleModel[models.Installment](ctx, target.InstallmentId)
		if ferr != nil {
			return nil, utils.NotFoundErrorf("installment %d", target.InstallmentId)
		}
		installments = []*models.Installment{installment}
	} else {
		if _, err = models.GetSale(ctx, target.SaleId); err != nil {
			return nil, err
		}
		installments, err = models.InstallmentsForSale(ctx, target.SaleId)
		if err != nil {
			return nil, err
		}
		if len(installments) == 0 {
			return nil, utils.StateErrorf("sale %d has no generated schedule", target.SaleId)
		}
	}

	allocations, err := allocatePayment(installments, amount)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	updated := make([]*models.Installment, 0, len(allocations))
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, allocation := range allocations {
			installment := allocation.installment
			installment.AmountPaid = installment.AmountPaid.Add(allocation.amount)
			installment.Status = models.DeriveInstallmentStatus(
				installment.ScheduledAmount, installment.AmountPaid, installment.DueDate, date)
			if err := tx.Model(&models.Installment{}).Where("id = ?", installment.ID).
				Updates(map[string]interface{}{
					"amount_paid": installment.AmountPaid,
					"status":      installment.Status,
				}).Error; err != nil {
				return err
			}
			updated = append(updated, installment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RefreshOverdueStatuses re-derives date-dependent status for open
// installments; run by the scheduled job before the alert scan.
func RefreshOverdueStatuses(ctx context.Context, asOf time.Time) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&models.Installment{}).
		Where("status = ? AND due_date < ?", models.InstallmentStatusPending, models.DateOf(asOf)).
		Update("status", models.InstallmentStatusOverdue)
	return result.RowsAffected, result.Error
}
