package models

import (
	"context"
	"time"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
	"github.com/YanTejera/inversiones-castillo-sub000/utils"
)

type SalesPerson struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100" json:"email"`
	Phone     string    `gorm:"size:30" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSalesPerson struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSalesPerson) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateUnique[SalesPerson](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if len(input.Email) > 0 {
		if err := utils.ValidateUnique[SalesPerson](ctx, "email", input.Email, id); err != nil {
			return err
		}
	}
	if len(input.Phone) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.ValidationErrorf("invalid phone number: %v", err)
		}
	}
	return nil
}

func CreateSalesPerson(ctx context.Context, input *NewSalesPerson) (*SalesPerson, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	salesPerson := SalesPerson{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&salesPerson).Error
	if err != nil {
		return nil, err
	}
	return &salesPerson, nil
}

func UpdateSalesPerson(ctx context.Context, id int, input *NewSalesPerson) (*SalesPerson, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	salesPerson, err := utils.FetchSingleModel[SalesPerson](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("sales person %d", id)
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(salesPerson).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Email": input.Email,
		"Phone": input.Phone,
	}).Error
	if err != nil {
		return nil, err
	}
	return salesPerson, nil
}

func GetSalesPerson(ctx context.Context, id int) (*SalesPerson, error) {
	salesPerson, err := utils.FetchSingleModel[SalesPerson](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("sales person %d", id)
	}
	return salesPerson, nil
}

func GetSalesPersons(ctx context.Context, name *string) ([]*SalesPerson, error) {
	db := config.GetDB()
	var results []*SalesPerson

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveSalesPerson(ctx context.Context, id int, isActive bool) (*SalesPerson, error) {
	salesPerson, err := utils.FetchSingleModel[SalesPerson](ctx, id)
	if err != nil {
		return nil, utils.NotFoundErrorf("sales person %d", id)
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(salesPerson).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	salesPerson.IsActive = &isActive
	return salesPerson, nil
}
