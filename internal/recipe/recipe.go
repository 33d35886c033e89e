// Package recipe resolves recipe ids to ingredient definitions by asking providers in priority order.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/shoplist/internal/model"
)

// Provider is one lookup source. Lookup returns (nil, nil) when the source does not know the id.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, id string) (*model.Recipe, error)
}

// Result is the outcome of a resolution. Source names the provider that answered.
type Result struct {
	Found  bool
	Source string
	Recipe model.Recipe
}

type Resolver interface {
	Resolve(ctx context.Context, id string) (Result, error)
}

// Chain tries its providers in order and returns the first hit.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Resolve returns Found=false when no provider knows id. A provider error is logged and the
// next provider is asked; the error is returned only when every provider failed.
func (c *Chain) Resolve(ctx context.Context, id string) (Result, error) {
	var errs []error
	for _, p := range c.providers {
		r, err := p.Lookup(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			c.logger.Warn("recipe provider failed", "provider", p.Name(), "recipe_id", id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if r != nil {
			return Result{Found: true, Source: p.Name(), Recipe: *r}, nil
		}
	}
	if len(errs) > 0 && len(errs) == len(c.providers) {
		return Result{}, fmt.Errorf("resolve recipe %s: %w", id, errors.Join(errs...))
	}
	return Result{}, nil
}

// Catalog is the local recipe table.
type Catalog interface {
	Get(ctx context.Context, id string) (*model.Recipe, error)
}

// CatalogProvider answers from the local catalog.
type CatalogProvider struct {
	catalog Catalog
}

func NewCatalogProvider(catalog Catalog) *CatalogProvider {
	return &CatalogProvider{catalog: catalog}
}

func (p *CatalogProvider) Name() string { return "catalog" }

func (p *CatalogProvider) Lookup(ctx context.Context, id string) (*model.Recipe, error) {
	return p.catalog.Get(ctx, id)
}
