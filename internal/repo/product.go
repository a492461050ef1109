package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campuskart/campus_market/internal/models"
)

// ProductFilter narrows ListProducts. Nil/zero fields are ignored.
type ProductFilter struct {
	AvailableOnly   bool
	Category        string
	SellerID        *uint
	ExcludeSellerID *uint
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, filter ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if filter.AvailableOnly {
		q = q.Where("status = ?", models.StatusAvailable)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.ExcludeSellerID != nil {
		q = q.Where("seller_id <> ?", *filter.ExcludeSellerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Save(prod).Error
}

// MarkSold transitions the product Available→Sold with a single conditional
// UPDATE. The WHERE clause on the current status is the compare-and-set:
// of any number of concurrent calls for the same id, exactly one can match
// the Available row.
func (r *GormRepo) MarkSold(ctx context.Context, id uint) (*models.Product, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ?", id, models.StatusAvailable).
		Update("status", models.StatusSold)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Disambiguate: the row is either missing or already past Available.
		// The CAS has already settled, so this read cannot un-sell anything.
		var prod models.Product
		if err := r.DB.WithContext(ctx).First(&prod, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, err
		}
		return nil, ErrNotAvailable
	}

	return r.GetProduct(ctx, id)
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
