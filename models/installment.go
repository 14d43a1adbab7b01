package models

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/shopspring/decimal"
)

// Installment (cuota) is one scheduled payment of a financed sale. Rows are
// created exactly once per sale by the schedule workflow and updated when
// payments land or the batch job re-derives date-dependent status.
type Installment struct {
	ID                int               `gorm:"primary_key" json:"id"`
	SaleId            int               `gorm:"uniqueIndex:idx_sale_installment_no,priority:1;not null" json:"sale_id"`
	InstallmentNumber int               `gorm:"uniqueIndex:idx_sale_installment_no,priority:2;not null" json:"installment_number"`
	DueDate           time.Time         `gorm:"index;not null" json:"due_date"`
	ScheduledAmount   decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"scheduled_amount"`
	AmountPaid        decimal.Decimal   `gorm:"type:decimal(20,2);default:0" json:"amount_paid"`
	Status            InstallmentStatus `gorm:"size:20;index;default:'Pending'" json:"status"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// DeriveInstallmentStatus applies the payment-first precedence: a partially
// paid installment stays Partial even past its due date; Overdue replaces
// Pending only.
func DeriveInstallmentStatus(scheduled, paid decimal.Decimal, dueDate, asOf time.Time) InstallmentStatus {
	if paid.GreaterThanOrEqual(scheduled) {
		return InstallmentStatusPaid
	}
	if paid.IsPositive() {
		return InstallmentStatusPartial
	}
	if DateOf(dueDate).Before(DateOf(asOf)) {
		return InstallmentStatusOverdue
	}
	return InstallmentStatusPending
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (c *Installment) BalanceDue() decimal.Decimal {
	return c.ScheduledAmount.Sub(c.AmountPaid)
}

// IsOverdue is date-based and independent of the stored status value, so a
// Partial installment past due still counts for collections and mora.
func (c *Installment) IsOverdue(asOf time.Time) bool {
	if c.AmountPaid.GreaterThanOrEqual(c.ScheduledAmount) {
		return false
	}
	return DateOf(c.DueDate).Before(DateOf(asOf))
}

func (c *Installment) DaysOverdue(asOf time.Time) int {
	if !c.IsOverdue(asOf) {
		return 0
	}
	return int(DateOf(asOf).Sub(DateOf(c.DueDate)).Hours() / 24)
}

func (c *Installment) HasLateFee(policy LateFeePolicy, asOf time.Time) bool {
	return c.DaysOverdue(asOf) > policy.GraceDays
}

func (c *Installment) LateFee(policy LateFeePolicy, asOf time.Time) decimal.Decimal {
	return policy.FeeFor(c.BalanceDue(), c.DaysOverdue(asOf))
}

// OverdueInstallments returns every installment still owed with a due date
// before asOf. Includes Overdue and past-due Partial rows.
func OverdueInstallments(ctx context.Context, asOf time.Time) ([]*Installment, error) {
	db := config.GetDB()
	var results []*Installment
	err := db.WithContext(ctx).
		Where("status IN ? AND due_date < ?",
			[]InstallmentStatus{InstallmentStatusPending, InstallmentStatusPartial, InstallmentStatusOverdue},
			DateOf(asOf)).
		Order("due_date, sale_id, installment_number").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpcomingInstallments returns pending installments due within the next
// windowDays days (exclusive of asOf itself, inclusive of the window end).
func UpcomingInstallments(ctx context.Context, asOf time.Time, windowDays int) ([]*Installment, error) {
	db := config.GetDB()
	var results []*Installment
	start := DateOf(asOf)
	end := start.AddDate(0, 0, windowDays)
	err := db.WithContext(ctx).
		Where("status = ? AND due_date > ? AND due_date <= ?", InstallmentStatusPending, start, end).
		Order("due_date, sale_id, installment_number").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func InstallmentsForSale(ctx context.Context, saleId int) ([]*Installment, error) {
	db := config.GetDB()
	var results []*Installment
	err := db.WithContext(ctx).
		Where("sale_id = ?", saleId).
		Order("installment_number").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// OverdueBalanceForSale aggregates the unpaid portion of past-due
// installments for one sale.
func OverdueBalanceForSale(ctx context.Context, saleId int, asOf time.Time) (decimal.Decimal, error) {
	db := config.GetDB()
	var balance decimal.Decimal
	err := db.WithContext(ctx).Model(&Installment{}).
		Select("COALESCE(SUM(scheduled_amount - amount_paid), 0)").
		Where("sale_id = ? AND due_date < ? AND amount_paid < scheduled_amount", saleId, DateOf(asOf)).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// OverdueBalanceForCustomer aggregates overdue balance across all of a
// customer's active sales.
func OverdueBalanceForCustomer(ctx context.Context, customerId int, asOf time.Time) (decimal.Decimal, error) {
	db := config.GetDB()
	var balance decimal.Decimal
	err := db.WithContext(ctx).Model(&Installment{}).
		Select("COALESCE(SUM(installments.scheduled_amount - installments.amount_paid), 0)").
		Joins("JOIN sales ON sales.id = installments.sale_id").
		Where("sales.customer_id = ? AND sales.status != ?", customerId, SaleStatusCancelled).
		Where("installments.due_date < ? AND installments.amount_paid < installments.scheduled_amount", DateOf(asOf)).
		Scan(&balance).Error
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
