package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
)

func (r *GormRepo) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	items := make([]models.InventoryItem, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateInventoryItem(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *GormRepo) UpdateInventoryItem(ctx context.Context, id uint, upd models.InventoryItem) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		item.Name = upd.Name
		item.Description = upd.Description
		item.Price = upd.Price
		item.Quantity = upd.Quantity
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteInventoryItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
