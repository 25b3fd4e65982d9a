package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billora/internal/signature/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sig *domain.Signature) error {
	return db.WithContext(ctx).Create(sig).Error
}

func (r *repo) FindActiveByExternalID(ctx context.Context, db *gorm.DB, provider, externalID string) (*domain.Signature, error) {
	var sig domain.Signature
	err := db.WithContext(ctx).
		Where("provider = ? AND external_id = ? AND is_active = ?", provider, externalID, true).
		Order("created_at desc").
		Limit(1).
		Find(&sig).Error
	if err != nil {
		return nil, err
	}
	if sig.ID == 0 {
		return nil, nil
	}
	return &sig, nil
}

func (r *repo) FindByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.Signature, error) {
	var sigs []domain.Signature
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at asc").
		Find(&sigs).Error
	if err != nil {
		return nil, err
	}
	return sigs, nil
}

func (r *repo) DeactivateByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) error {
	return db.WithContext(ctx).Model(&domain.Signature{}).
		Where("document_id = ? AND is_active = ?", documentID, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateProviderStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string) error {
	return db.WithContext(ctx).Model(&domain.Signature{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"provider_status": status,
			"updated_at":      time.Now().UTC(),
		}).Error
}
