// Package seed bootstraps the single business profile on first start.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/billora/internal/company/domain"
	"github.com/smallbiznis/billora/internal/config"
	"gorm.io/gorm"
)

// EnsureCompany creates the company profile from configuration when none
// exists yet. A profile already in storage is never overwritten: the
// environment only seeds, it does not manage.
func EnsureCompany(db *gorm.DB, genID *snowflake.Node, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	name := strings.TrimSpace(cfg.CompanyName)
	if name == "" {
		return nil
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&companydomain.Company{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&companydomain.Company{
			ID:        genID.Generate(),
			Name:      name,
			Email:     strings.TrimSpace(cfg.CompanyEmail),
			Country:   strings.ToUpper(strings.TrimSpace(cfg.CompanyCountry)),
			Currency:  strings.ToUpper(strings.TrimSpace(cfg.CompanyCurrency)),
			ExemptVAT: cfg.CompanyVATExempt,
		}).Error
	})
}
