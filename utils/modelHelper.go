package utils

import (
	"context"

	"github.com/YanTejera/inversiones-castillo-sub000/config"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchSingleModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}

// ValidateUnique checks that no other row of T carries the same value in the
// given column. Pass id = 0 on create; on update the row itself is excluded.
func ValidateUnique[T any](ctx context.Context, column string, value string, id int) error {
	db := config.GetDB()
	var v T
	var count int64
	dbCtx := db.WithContext(ctx).Model(&v).Where(column+" = ?", value)
	if id > 0 {
		dbCtx = dbCtx.Where("id != ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ValidationErrorf("%s already in use", column)
	}
	return nil
}
