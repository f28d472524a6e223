package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
)

func (r *GormRepo) ListSweets(ctx context.Context) ([]models.SweetItem, error) {
	items := make([]models.SweetItem, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetSweet(ctx context.Context, id uint) (*models.SweetItem, error) {
	var item models.SweetItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateSweet(ctx context.Context, item *models.SweetItem) (*models.SweetItem, error) {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateSweet replaces name, description and price of an existing row.
func (r *GormRepo) UpdateSweet(ctx context.Context, id uint, name string, description *string, price float64) (*models.SweetItem, error) {
	var item models.SweetItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		item.Name = name
		item.Description = description
		item.Price = price
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteSweet(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.SweetItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchSweets is a case-insensitive substring match on name and description.
func (r *GormRepo) SearchSweets(ctx context.Context, q string) ([]models.SweetItem, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q))) + "%"
	items := make([]models.SweetItem, 0)
	if err := r.DB.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
