package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/billora/internal/signing/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.ConfigRepository {
	return &repo{}
}

func (r *repo) FindByProvider(ctx context.Context, db *gorm.DB, provider string) (*domain.ProviderConfig, error) {
	var cfg domain.ProviderConfig
	err := db.WithContext(ctx).Where("provider = ?", provider).Limit(1).Find(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "" {
		return nil, nil
	}
	return &cfg, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, cfg *domain.ProviderConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"base_url", "api_key", "webhook_secret_hash", "is_active", "updated_at",
		}),
	}).Create(cfg).Error
}
