package models

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Alert is the shared notification row scanned by dashboards. Payload fields
// are typed columns per alert type instead of an open-ended JSON map:
// payment alerts fill SaleId/InstallmentId/DaysOverdue/BalanceDue/DueDate,
// the (external) low-stock scanner fills its own columns on the same table.
type Alert struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Type          AlertType       `gorm:"size:30;index:idx_alert_dedup,priority:1;not null" json:"type"`
	Priority      AlertPriority   `gorm:"size:10;not null" json:"priority"`
	Status        AlertStatus     `gorm:"size:10;index;default:'Active'" json:"status"`
	Message       string          `gorm:"size:255" json:"message"`
	SaleId        int             `gorm:"index" json:"sale_id"`
	InstallmentId int             `gorm:"index:idx_alert_dedup,priority:2" json:"installment_id"`
	DaysOverdue   int             `json:"days_overdue"`
	BalanceDue    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance_due"`
	DueDate       time.Time       `json:"due_date"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index:idx_alert_dedup,priority:3" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecentAlertExists is the de-duplication check: has an alert of this type for
// this installment been created since the cool-down cutoff. Best-effort
// check-then-act; the batch job is serialized externally.
func RecentAlertExists(tx *gorm.DB, alertType AlertType, installmentId int, since time.Time) (bool, error) {
	var count int64
	err := tx.Model(&Alert{}).
		Where("type = ? AND installment_id = ? AND created_at >= ?", alertType, installmentId, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func ActiveAlerts(ctx context.Context) ([]*Alert, error) {
	db := config.GetDB()
	var results []*Alert
	err := db.WithContext(ctx).
		Where("status = ?", AlertStatusActive).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MarkAlertRead moves Active -> Read. Transitions are one-directional.
func MarkAlertRead(ctx context.Context, id int) (*Alert, error) {
	alert, err := utils.FetchSingleModel[Alert](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("alert %d", id)
	}
	if alert.Status != AlertStatusActive {
		return nil, utils.StateErrorf("alert %d is %s, only active alerts can be marked read", id, alert.Status)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(alert).Update("status", AlertStatusRead).Error; err != nil {
		return nil, err
	}
	alert.Status = AlertStatusRead
	return alert, nil
}

// ResolveAlert moves Active or Read -> Resolved.
func ResolveAlert(ctx context.Context, id int) (*Alert, error) {
	alert, err := utils.FetchSingleModel[Alert](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("alert %d", id)
	}
	if alert.Status == AlertStatusResolved {
		return nil, utils.StateErrorf("alert %d is already resolved", id)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(alert).Update("status", AlertStatusResolved).Error; err != nil {
		return nil, err
	}
	alert.Status = AlertStatusResolved
	return alert, nil
}
