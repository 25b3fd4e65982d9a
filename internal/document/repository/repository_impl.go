package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billora/internal/document/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, doc *domain.Document, items []domain.LineItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].DocumentID = doc.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&doc).Error
	if err != nil {
		return nil, err
	}
	if doc.ID == 0 {
		return nil, nil
	}
	return &doc, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sort_order asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, documentID snowflake.ID, items []domain.LineItem) error {
	if err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&domain.LineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].DocumentID = documentID
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) UpdateTotals(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	return db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]any{
			"total_ht":        doc.TotalHT,
			"total_vat":       doc.TotalVAT,
			"total_ttc":       doc.TotalTTC,
			"payment_method":  doc.PaymentMethod,
			"payment_details": doc.PaymentDetails,
			"notes":           doc.Notes,
			"valid_until":     doc.ValidUntil,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, fields map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range fields {
		updates[k] = v
	}
	result := db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) CountByTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Document{}).
		Where("recurrence_template_id = ?", templateID).
		Count(&count).Error
	return count, err
}
