package models

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
)

// Sale is owned by the sales module; the financing engine reads it and stores
// the derived financing figures back on it when the schedule is generated.
type Sale struct {
	ID                int             `gorm:"primary_key" json:"id"`
	CustomerId        int             `gorm:"index;not null" json:"customer_id"`
	SalesPersonId     int             `gorm:"index;not null" json:"sales_person_id"`
	SaleDate          time.Time       `gorm:"not null" json:"sale_date"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_amount"`
	DownPayment       decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"down_payment"`
	TermMonths        int             `gorm:"not null" json:"term_months"`
	AnnualRatePercent decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"annual_rate_percent"`
	MonthlyPayment    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"monthly_payment"`
	TotalWithInterest decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_with_interest"`
	Status            SaleStatus      `gorm:"size:20;default:'Active'" json:"status"`
	Items             []SaleItem      `json:"items"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	SaleId       int             `gorm:"index;not null" json:"sale_id"`
	Description  string          `gorm:"size:255" json:"description"`
	Qty          int             `gorm:"default:1" json:"qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"unit_price"`
	PurchaseCost decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"purchase_cost"`
}

// FinancingRequest links a sale to a financing institution request. Only a
// disbursed request qualifies the sale for the financing commission bonus.
type FinancingRequest struct {
	ID          int             `gorm:"primary_key" json:"id"`
	SaleId      int             `gorm:"index;not null" json:"sale_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status      FinancingStatus `gorm:"size:20;default:'Requested'" json:"status"`
	RequestedAt time.Time       `gorm:"not null" json:"requested_at"`
	DisbursedAt *time.Time      `json:"disbursed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	sale, err := utils.FetchSingleModel[Sale](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("sale %d", id)
	}
	return sale, nil
}

func (s *Sale) FinancedAmount() decimal.Decimal {
	return s.TotalAmount.Sub(s.DownPayment)
}

// SaleCostOfGoods sums purchase cost from the sale's line items.
// known is false when no item carries cost data; the caller is expected to
// apply (and log) the estimated-cost fallback.
func SaleCostOfGoods(ctx context.Context, saleId int) (cost decimal.Decimal, known bool, err error) {
	db := config.GetDB()
	var items []*SaleItem
	if err = db.WithContext(ctx).Where("sale_id = ?", saleId).Find(&items).Error; err != nil {
		return decimal.Zero, false, err
	}
	for _, item := range items {
		if item.PurchaseCost.IsPositive() {
			known = true
			qty := item.Qty
			if qty <= 0 {
				qty = 1
			}
			cost = cost.Add(item.PurchaseCost.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
	if !known {
		return decimal.Zero, false, nil
	}
	return cost, true, nil
}

// HasDisbursedFinancing reports whether the sale has an associated financing
// request that was actually disbursed.
func HasDisbursedFinancing(ctx context.Context, saleId int) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&FinancingRequest{}).
		Where("sale_id = ? AND status = ?", saleId, FinancingStatusDisbursed).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FinalizedSalesBetween lists completed sales in [from, to], optionally for a
// single salesperson. Used by the commission recompute batch.
func FinalizedSalesBetween(ctx context.Context, from, to time.Time, salesPersonId *int) ([]*Sale, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("status = ? AND sale_date >= ? AND sale_date <= ?", SaleStatusFinalized, from, to)
	if salesPersonId != nil && *salesPersonId > 0 {
		dbCtx = dbCtx.Where("sales_person_id = ?", *salesPersonId)
	}
	var sales []*Sale
	if err := dbCtx.Order("sale_date, id").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// MonthlySalesTotals returns the salesperson's cumulative unit count and
// revenue for the calendar month containing asOf, counting finalized sales
// up to and including that date. The current sale is included because it is
// finalized before the commission is computed; bounding at asOf keeps a
// recompute from seeing sales finalized later in the same month.
func MonthlySalesTotals(ctx context.Context, salesPersonId int, asOf time.Time) (int, decimal.Decimal, error) {
	db := config.GetDB()

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())

	type totals struct {
		Units   int
		Revenue decimal.Decimal
	}
	var result totals
	err := db.WithContext(ctx).Model(&Sale{}).
		Select("COUNT(*) as units, COALESCE(SUM(total_amount), 0) as revenue").
		Where("sales_person_id = ? AND status = ? AND sale_date >= ? AND sale_date <= ?",
			salesPersonId, SaleStatusFinalized, monthStart, asOf).
		Scan(&result).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	return result.Units, result.Revenue, nil
}
