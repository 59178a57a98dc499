package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// RefreshUsable reports whether the record for jti exists with the given
// hash and is neither revoked nor expired at now.
func (r *GormRepo) RefreshUsable(ctx context.Context, jti, tokenHash string, now time.Time) (bool, error) {
	t, err := r.FindRefreshByJTI(ctx, jti)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if t.Revoked || t.TokenHash != tokenHash || !t.ExpiresAt.After(now) {
		return false, nil
	}
	return true, nil
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return revokeAllForUser(r.DB.WithContext(ctx), userID)
}

func revokeAllForUser(db *gorm.DB, userID uuid.UUID) error {
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (r *GormRepo) DeleteExpiredRefresh(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
