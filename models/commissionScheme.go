package models

import (
	"context"
	"fmt"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
	"github.com/shopspring/decimal"
)

type CommissionScheme struct {
	ID                     int                  `gorm:"primary_key" json:"id"`
	Name                   string               `gorm:"size:100;not null" json:"name"`
	Type                   CommissionSchemeType `gorm:"size:20;not null" json:"type"`
	BasePercent            decimal.Decimal      `gorm:"type:decimal(10,4);default:0" json:"base_percent"`
	FixedAmount            decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"fixed_amount"`
	FinancingPercent       decimal.Decimal      `gorm:"type:decimal(10,4);default:0" json:"financing_percent"`
	IncludesFinancingBonus *bool                `gorm:"not null;default:false" json:"includes_financing_bonus"`
	IsActive               *bool                `gorm:"not null;default:true" json:"is_active"`
	Tiers                  []CommissionTier     `gorm:"foreignKey:SchemeId" json:"tiers"`
	CreatedAt              time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// CommissionTier is one volume/revenue bracket of a tiered scheme. Lower
// bounds are inclusive; a nil upper bound is unbounded.
type CommissionTier struct {
	ID         int              `gorm:"primary_key" json:"id"`
	SchemeId   int              `gorm:"index;not null" json:"scheme_id"`
	FromUnits  int              `gorm:"default:0" json:"from_units"`
	ToUnits    *int             `json:"to_units"`
	FromAmount decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"from_amount"`
	ToAmount   *decimal.Decimal `gorm:"type:decimal(20,2)" json:"to_amount"`
	Percent    decimal.Decimal  `gorm:"type:decimal(10,4);default:0" json:"percent"`
	FixedBonus decimal.Decimal  `gorm:"type:decimal(20,2);default:0" json:"fixed_bonus"`
	Position   int              `gorm:"default:0" json:"position"`
}

// SchemeAssignment binds a salesperson to a scheme for a date range. The
// engine rejects overlapping active assignments at creation; the lookup still
// orders by start_date DESC so the latest assignment wins if overlap sneaks
// in through direct data edits.
type SchemeAssignment struct {
	ID            int              `gorm:"primary_key" json:"id"`
	SalesPersonId int              `gorm:"index;not null" json:"sales_person_id"`
	SchemeId      int              `gorm:"index;not null" json:"scheme_id"`
	StartDate     time.Time        `gorm:"not null" json:"start_date"`
	EndDate       *time.Time       `json:"end_date"`
	CustomPercent *decimal.Decimal `gorm:"type:decimal(10,4)" json:"custom_percent"`
	IsActive      *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCommissionScheme struct {
	Name                   string               `json:"name" validate:"required"`
	Type                   CommissionSchemeType `json:"type" validate:"required"`
	BasePercent            decimal.Decimal      `json:"base_percent"`
	FixedAmount            decimal.Decimal      `json:"fixed_amount"`
	FinancingPercent       decimal.Decimal      `json:"financing_percent"`
	IncludesFinancingBonus bool                 `json:"includes_financing_bonus"`
}

func (input *NewCommissionScheme) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.Type.IsValid() {
		return utils.ValidationErrorf("invalid commission scheme type %q", input.Type)
	}
	if input.BasePercent.IsNegative() || input.FinancingPercent.IsNegative() || input.FixedAmount.IsNegative() {
		return utils.ValidationErrorf("scheme percentages and amounts cannot be negative")
	}
	return utils.ValidateUnique[CommissionScheme](ctx, "name", input.Name, id)
}

func CreateCommissionScheme(ctx context.Context, input *NewCommissionScheme) (*CommissionScheme, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	scheme := CommissionScheme{
		Name:                   input.Name,
		Type:                   input.Type,
		BasePercent:            input.BasePercent,
		FixedAmount:            input.FixedAmount,
		FinancingPercent:       input.FinancingPercent,
		IncludesFinancingBonus: &input.IncludesFinancingBonus,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&scheme).Error; err != nil {
		return nil, err
	}
	return &scheme, nil
}

func GetCommissionScheme(ctx context.Context, id int) (*CommissionScheme, error) {
	scheme, err := utils.FetchSingleModel[CommissionScheme](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("commission scheme %d", id)
	}
	return scheme, nil
}

type NewCommissionTier struct {
	FromUnits  int              `json:"from_units"`
	ToUnits    *int             `json:"to_units"`
	FromAmount decimal.Decimal  `json:"from_amount"`
	ToAmount   *decimal.Decimal `json:"to_amount"`
	Percent    decimal.Decimal  `json:"percent"`
	FixedBonus decimal.Decimal  `json:"fixed_bonus"`
	Position   int              `json:"position"`
}

func AddCommissionTier(ctx context.Context, schemeId int, input *NewCommissionTier) (*CommissionTier, error) {
	scheme, err := GetCommissionScheme(ctx, schemeId)
	if err != nil {
		return nil, err
	}
	if scheme.Type != SchemeTypeTiered {
		return nil, utils.StateErrorf("scheme %d is %s, tiers apply to tiered schemes only", schemeId, scheme.Type)
	}
	if input.ToUnits != nil && *input.ToUnits < input.FromUnits {
		return nil, utils.ValidationErrorf("tier unit bounds are inverted")
	}
	if input.ToAmount != nil && input.ToAmount.LessThan(input.FromAmount) {
		return nil, utils.ValidationErrorf("tier amount bounds are inverted")
	}

	tier := CommissionTier{
		SchemeId:   schemeId,
		FromUnits:  input.FromUnits,
		ToUnits:    input.ToUnits,
		FromAmount: input.FromAmount,
		ToAmount:   input.ToAmount,
		Percent:    input.Percent,
		FixedBonus: input.FixedBonus,
		Position:   input.Position,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&tier).Error; err != nil {
		return nil, err
	}
	// invalidate tier cache
	if err := config.RemoveRedisKey(tierCacheKey(schemeId)); err != nil {
		config.LogError(config.GetLogger(), "models", "AddCommissionTier", "invalidate tier cache", schemeId, err)
	}
	return &tier, nil
}

func tierCacheKey(schemeId int) string {
	return fmt.Sprintf("commissionTiers:%d", schemeId)
}

// SchemeTiers returns the scheme's tiers ordered by position, redis-cached.
func SchemeTiers(ctx context.Context, schemeId int) ([]*CommissionTier, error) {
	var tiers []*CommissionTier
	exists, err := config.GetRedisObject(tierCacheKey(schemeId), &tiers)
	if err != nil {
		return nil, err
	}
	if exists {
		return tiers, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("scheme_id = ?", schemeId).
		Order("position, from_units, from_amount").
		Find(&tiers).Error; err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(tierCacheKey(schemeId), &tiers, 0); err != nil {
		return nil, err
	}
	return tiers, nil
}

type NewSchemeAssignment struct {
	SalesPersonId int              `json:"sales_person_id" validate:"required,gt=0"`
	SchemeId      int              `json:"scheme_id" validate:"required,gt=0"`
	StartDate     time.Time        `json:"start_date" validate:"required"`
	EndDate       *time.Time       `json:"end_date"`
	CustomPercent *decimal.Decimal `json:"custom_percent"`
}

// AssignScheme creates an assignment after rejecting overlap with any other
// active assignment of the same salesperson.
func AssignScheme(ctx context.Context, input *NewSchemeAssignment) (*SchemeAssignment, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, utils.ValidationErrorf("assignment end date precedes start date")
	}
	if _, err := GetSalesPerson(ctx, input.SalesPersonId); err != nil {
		return nil, err
	}
	if _, err := GetCommissionScheme(ctx, input.SchemeId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var overlapping int64
	dbCtx := db.WithContext(ctx).Model(&SchemeAssignment{}).
		Where("sales_person_id = ? AND is_active = true", input.SalesPersonId).
		Where("(end_date IS NULL OR end_date >= ?)", input.StartDate)
	if input.EndDate != nil {
		dbCtx = dbCtx.Where("start_date <= ?", *input.EndDate)
	}
	if err := dbCtx.Count(&overlapping).Error; err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, utils.StateErrorf("sales person %d already has an active assignment covering this period", input.SalesPersonId)
	}

	assignment := SchemeAssignment{
		SalesPersonId: input.SalesPersonId,
		SchemeId:      input.SchemeId,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		CustomPercent: input.CustomPercent,
	}
	if err := db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ActiveAssignmentFor finds the assignment covering the given date.
// Returns a state error when none exists: commissions cannot be computed
// without a scheme and callers must surface that, not skip silently.
func ActiveAssignmentFor(ctx context.Context, salesPersonId int, onDate time.Time) (*SchemeAssignment, error) {
	db := config.GetDB()
	var assignments []*SchemeAssignment
	err := db.WithContext(ctx).
		Where("sales_person_id = ? AND is_active = true AND start_date <= ?", salesPersonId, onDate).
		Where("(end_date IS NULL OR end_date >= ?)", onDate).
		Order("start_date DESC").
		Limit(1).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, utils.StateErrorf("no commission scheme assigned to sales person %d on %s", salesPersonId, onDate.Format("2006-01-02"))
	}
	return assignments[0], nil
}

// EndAssignment closes an assignment as of the given date.
func EndAssignment(ctx context.Context, id int, endDate time.Time) (*SchemeAssignment, error) {
	assignment, err := utils.FetchSingleModel[SchemeAssignment](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("scheme assignment %d", id)
	}
	if endDate.Before(assignment.StartDate) {
		return nil, utils.ValidationErrorf("assignment end date precedes start date")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(assignment).Update("end_date", endDate).Error; err != nil {
		return nil, err
	}
	assignment.EndDate = &endDate
	return assignment, nil
}
