package models

import (
	"log"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Sale{}, &SaleItem{}, &FinancingRequest{},
		&Installment{},
		&Alert{},
		&SalesPerson{},
		&CommissionScheme{}, &CommissionTier{}, &SchemeAssignment{},
		&Commission{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
