package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/sweet_shop/internal/models"
)

// RevokeToken is idempotent: revoking the same jti twice is not an error.
func (r *GormRepo) RevokeToken(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	tok := models.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&tok).Error
}

func (r *GormRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeExpiredRevocations drops rows whose token would be rejected anyway.
func (r *GormRepo) PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.Unix()).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
