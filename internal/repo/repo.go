package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) AutoMigrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}
