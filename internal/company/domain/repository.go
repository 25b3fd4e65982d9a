package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindFirst returns the configured company profile, nil when none exists.
	FindFirst(ctx context.Context, db *gorm.DB) (*Company, error)
}
