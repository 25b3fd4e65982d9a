package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, doc *Document, items []LineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Document, error)
	FindItems(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]LineItem, error)
	ReplaceItems(ctx context.Context, db *gorm.DB, documentID snowflake.ID, items []LineItem) error
	UpdateTotals(ctx context.Context, db *gorm.DB, doc *Document) error
	// UpdateStatus performs a guarded status write: the row is only updated
	// when its status still equals from. Returns false when another writer
	// got there first.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, fields map[string]any) (bool, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
	CountByTemplate(ctx context.Context, db *gorm.DB, templateID snowflake.ID) (int64, error)
}
