package repository

import (
	"context"

	"github.com/smallbiznis/billora/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindFirst(ctx context.Context, db *gorm.DB) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, country, currency, exempt_vat, created_at, updated_at
		 FROM companies ORDER BY created_at ASC LIMIT 1`,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, nil
	}
	return &company, nil
}
