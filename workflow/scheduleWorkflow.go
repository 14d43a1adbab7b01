package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/models"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// dueDateFor returns the due date of installment n: the sale's anchor day,
// n months on, clamped to the end of the target month when the anchor day
// does not exist there. Plain AddDate would normalize the overflow into the
// next month and leave calendar months without an installment.
func dueDateFor(saleDate time.Time, number int) time.Time {
	first := time.Date(saleDate.Year(), saleDate.Month(), 1, 0, 0, 0, 0, saleDate.Location())
	target := first.AddDate(0, number, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := saleDate.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, saleDate.Location())
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// GenerateSchedule creates the full installment schedule for a sale in one
// transaction and stores the derived monthly payment back on the sale.
// Generating twice is a state error; the (sale_id, installment_number) unique
// index backstops the check under concurrency.
func GenerateSchedule(ctx context.Context, saleId int) ([]*models.Installment, error) {
	sale, err := models.GetSale(ctx, saleId)
	if err != nil {
		return nil, err
	}
	if sale.Status == models.SaleStatusCancelled {
		return nil, utils.StateErrorf("sale %d is cancelled", saleId)
	}

	db := config.GetDB()
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Installment{}).
		Where("sale_id = ?", saleId).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, utils.StateErrorf("schedule already generated for sale %d", saleId)
	}

	result, err := models.CalculateAmortization(models.AmortizationInput{
		TotalAmount:       sale.TotalAmount,
		DownPayment:       sale.DownPayment,
		AnnualRatePercent: sale.AnnualRatePercent,
		TermMonths:        sale.TermMonths,
	})
	if err != nil {
		return nil, err
	}

	// Equal-payment design: every persisted row carries the rounded
	// installment amount. Rounding absorption lives only in the
	// informational amortization table, not here.
	installments := make([]*models.Installment, 0, sale.TermMonths)
	for number := 1; number <= sale.TermMonths; number++ {
		installments = append(installments, &models.Installment{
			SaleId:            saleId,
			InstallmentNumber: number,
			DueDate:           dueDateFor(sale.SaleDate, number),
			ScheduledAmount:   result.Installment,
			Status:            models.InstallmentStatusPending,
		})
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&installments).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return utils.StateErrorf("schedule already generated for sale %d", saleId)
			}
			return err
		}
		return tx.Model(&models.Sale{}).Where("id = ?", saleId).
			Updates(map[string]interface{}{
				"monthly_payment":     result.Installment,
				"total_with_interest": result.TotalToPay,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// CancelSale cancels a sale and cascades its schedule away in the same
// transaction. Computed commissions are left untouched for the admin flow.
func CancelSale(ctx context.Context, saleId int) error {
	sale, err := models.GetSale(ctx, saleId)
	if err != nil {
		return err
	}
	if sale.Status == models.SaleStatusCancelled {
		return utils.StateErrorf("sale %d is already cancelled", saleId)
	}

	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", saleId).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Sale{}).Where("id = ?", saleId).
			Update("status", models.SaleStatusCancelled).Error
	})
}
