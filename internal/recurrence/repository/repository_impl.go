package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billora/internal/recurrence/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tmpl *domain.Template, items []domain.TemplateItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tmpl).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].TemplateID = tmpl.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Template, error) {
	var tmpl domain.Template
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&tmpl).Error
	if err != nil {
		return nil, err
	}
	if tmpl.ID == 0 {
		return nil, nil
	}
	return &tmpl, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID) ([]domain.TemplateItem, error) {
	var items []domain.TemplateItem
	err := db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("sort_order asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, today time.Time) ([]domain.Template, error) {
	var templates []domain.Template
	err := db.WithContext(ctx).
		Where("next_due_date <= ?", today).
		Where("until IS NULL OR until >= ?", today).
		Order("next_due_date asc, id asc").
		Find(&templates).Error
	return templates, err
}

func (r *repo) Advance(ctx context.Context, db *gorm.DB, id snowflake.ID, nextDue, lastInvoice time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"next_due_date":     nextDue,
			"last_invoice_date": lastInvoice,
			"updated_at":        time.Now().UTC(),
		}).Error
}
