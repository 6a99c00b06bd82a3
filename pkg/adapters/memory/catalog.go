package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/bookflow/pkg/domain"
)

// Catalog implements ports.ServiceCatalog over a fixed list of services.
type Catalog struct {
	services []domain.Service
}

// NewCatalog creates a catalog. Service IDs must be unique and non-empty.
func NewCatalog(services ...domain.Service) (*Catalog, error) {
	seen := make(map[string]bool, len(services))
	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("service %q missing ID", s.Name)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate service ID: %s", s.ID)
		}
		seen[s.ID] = true

		opts := make(map[string]bool, len(s.Options))
		for _, o := range s.Options {
			if o.ID == "" || opts[o.ID] {
				return nil, fmt.Errorf("service %s: option IDs must be unique and non-empty", s.ID)
			}
			opts[o.ID] = true
			if o.Type.HasChoices() && len(o.Choices) == 0 {
				return nil, fmt.Errorf("service %s: option %s has no choices", s.ID, o.ID)
			}
		}
	}
	return &Catalog{services: append([]domain.Service(nil), services...)}, nil
}

// Services returns the catalog in declaration order.
func (c *Catalog) Services(ctx context.Context) ([]domain.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Service(nil), c.services...), nil
}
