// Package adapters wires the known signing providers into a lookup table.
package adapters

import (
	"strings"

	"github.com/smallbiznis/billora/internal/signing/adapters/documenso"
	"github.com/smallbiznis/billora/internal/signing/adapters/docuseal"
	"github.com/smallbiznis/billora/internal/signing/domain"
)

// Registry maps provider names to their adapters. Built once at start;
// read-only afterwards.
type Registry struct {
	adapters map[string]domain.Adapter
}

func NewRegistry() *Registry {
	r := &Registry{adapters: map[string]domain.Adapter{}}
	for _, a := range []domain.Adapter{
		documenso.New(),
		docuseal.New(),
	} {
		r.adapters[strings.ToLower(a.Describe().ID)] = a
	}
	return r
}

// Get is case-insensitive and returns nil for unknown providers.
func (r *Registry) Get(name string) domain.Adapter {
	return r.adapters[strings.ToLower(strings.TrimSpace(name))]
}
