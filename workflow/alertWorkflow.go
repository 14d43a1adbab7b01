package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/models"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	overdueAlertCooldown  = 24 * time.Hour
	upcomingAlertCooldown = 72 * time.Hour
	upcomingWindowDays    = 7
	alertRunLockKey       = "alerts:generate"
	alertRunLockTTL       = 5 * time.Minute
)

// planAlerts decides which alerts to create from the current ledger state.
// recentExists answers "was an alert of this type created for this
// installment within its cool-down window". Factored out of the batch run so
// the de-duplication rules are testable without a database.
func planAlerts(overdue, upcoming []*models.Installment, recentExists func(models.AlertType, int) (bool, error), now time.Time) ([]*models.Alert, error) {
	var planned []*models.Alert

	for _, installment := range overdue {
		exists, err := recentExists(models.AlertTypeOverduePayment, installment.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		days := installment.DaysOverdue(now)
		planned = append(planned, &models.Alert{
			Type:          models.AlertTypeOverduePayment,
			Priority:      models.AlertPriorityHigh,
			Status:        models.AlertStatusActive,
			Message:       fmt.Sprintf("installment %d of sale %d is %d day(s) overdue, balance %s", installment.InstallmentNumber, installment.SaleId, days, installment.BalanceDue().StringFixed(2)),
			SaleId:        installment.SaleId,
			InstallmentId: installment.ID,
			DaysOverdue:   days,
			BalanceDue:    installment.BalanceDue(),
			DueDate:       installment.DueDate,
		})
	}

	for _, installment := range upcoming {
		exists, err := recentExists(models.AlertTypeUpcomingPayment, installment.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		planned = append(planned, &models.Alert{
			Type:          models.AlertTypeUpcomingPayment,
			Priority:      models.AlertPriorityMedium,
			Status:        models.AlertStatusActive,
			Message:       fmt.Sprintf("installment %d of sale %d is due on %s", installment.InstallmentNumber, installment.SaleId, installment.DueDate.Format("2006-01-02")),
			SaleId:        installment.SaleId,
			InstallmentId: installment.ID,
			BalanceDue:    installment.BalanceDue(),
			DueDate:       installment.DueDate,
		})
	}

	return planned, nil
}

// GenerateAlerts scans the ledger and creates overdue and upcoming-payment
// alerts, debounced per installment. The run is serialized through a redis
// lock; a second concurrent runner exits quietly with zero created.
func GenerateAlerts(ctx context.Context, now time.Time) (int, error) {
	logger := config.GetLogger()
	runId := uuid.NewString()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, alertRunLockKey, alertRunLockTTL, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				logger.WithFields(logrus.Fields{"module": "workflow", "runId": runId}).
					Info("alert run already in progress, skipping")
				return 0, nil
			}
			return 0, err
		}
		defer lock.Release(ctx)
	}

	if _, err := RefreshOverdueStatuses(ctx, now); err != nil {
		return 0, err
	}

	overdue, err := models.OverdueInstallments(ctx, now)
	if err != nil {
		return 0, err
	}
	upcoming, err := models.UpcomingInstallments(ctx, now, upcomingWindowDays)
	if err != nil {
		return 0, err
	}

	db := config.GetDB()
	recentExists := func(alertType models.AlertType, installmentId int) (bool, error) {
		cooldown := overdueAlertCooldown
		if alertType == models.AlertTypeUpcomingPayment {
			cooldown = upcomingAlertCooldown
		}
		return models.RecentAlertExists(db.WithContext(ctx), alertType, installmentId, now.Add(-cooldown))
	}

	planned, err := planAlerts(overdue, upcoming, recentExists, now)
	if err != nil {
		return 0, err
	}
	if len(planned) == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).Create(&planned).Error; err != nil {
		config.LogError(logger, "workflow", "GenerateAlerts", "create alerts", runId, err)
		return 0, err
	}

	logger.WithFields(logrus.Fields{
		"module":  "workflow",
		"runId":   runId,
		"created": len(planned),
		"overdue": len(overdue),
	}).Info("alert scan finished")
	return len(planned), nil
}
