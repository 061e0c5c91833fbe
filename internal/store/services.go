package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/validate"
)

// ServiceAPI is the catalog part of the backend.
type ServiceAPI interface {
	ListServices(ctx context.Context, q api.ServiceQuery) ([]model.Service, error)
	GetService(ctx context.Context, id int64) (model.Service, error)
	CreateService(ctx context.Context, in model.ServiceInput) (model.Service, error)
	UpdateService(ctx context.Context, id int64, in model.ServiceInput) (model.Service, error)
	DeleteService(ctx context.Context, id int64) error
}

// ServiceFilters narrow the catalog. Inactive services are hidden unless ShowInactive.
type ServiceFilters struct {
	Search       string
	Pincode      string
	ShowInactive bool
}

// ServiceFilterPatch is merged into ServiceFilters; nil fields are kept.
type ServiceFilterPatch struct {
	Search       *string
	Pincode      *string
	ShowInactive *bool
}

func serviceMatches(s model.Service, f ServiceFilters) bool {
	if !f.ShowInactive && !s.IsActive {
		return false
	}
	if f.Search != "" {
		return containsFold(f.Search, s.Name, s.Description)
	}
	return true
}

// ServiceCache caches the service catalog. New services are appended.
type ServiceCache struct {
	*Cache[model.Service, ServiceFilters]
	api ServiceAPI
}

func NewServiceCache(a ServiceAPI, log *zap.Logger) *ServiceCache {
	return &ServiceCache{
		Cache: newCache("services", func(s model.Service) int64 { return s.ID }, ServiceFilters{}, serviceMatches, log),
		api:   a,
	}
}

// SetFilters merges p into the active filters.
func (c *ServiceCache) SetFilters(p ServiceFilterPatch) {
	c.updateFilters(func(f *ServiceFilters) {
		if p.Search != nil {
			f.Search = *p.Search
		}
		if p.Pincode != nil {
			f.Pincode = *p.Pincode
		}
		if p.ShowInactive != nil {
			f.ShowInactive = *p.ShowInactive
		}
	})
}

// FetchAll replaces the catalog. The pincode filter is applied by the backend.
func (c *ServiceCache) FetchAll(ctx context.Context) ([]model.Service, error) {
	f := c.Filters()
	q := api.ServiceQuery{Pincode: f.Pincode, ShowInactive: f.ShowInactive}
	return run(ctx, c.Cache, "fetch_all", "Failed to fetch services",
		func(ctx context.Context) ([]model.Service, error) { return c.api.ListServices(ctx, q) },
		c.replaceAll)
}

func (c *ServiceCache) FetchOne(ctx context.Context, id int64) (model.Service, error) {
	return run(ctx, c.Cache, "fetch_one", "Failed to fetch service",
		func(ctx context.Context) (model.Service, error) { return c.api.GetService(ctx, id) },
		c.setCurrent)
}

func (c *ServiceCache) Create(ctx context.Context, in model.ServiceInput) (model.Service, error) {
	if err := validate.Struct(in); err != nil {
		return model.Service{}, c.fail(err, "Failed to create service")
	}
	return run(ctx, c.Cache, "create", "Failed to create service",
		func(ctx context.Context) (model.Service, error) { return c.api.CreateService(ctx, in) },
		func(s model.Service) { c.items = append(c.items, s) })
}

func (c *ServiceCache) Update(ctx context.Context, id int64, in model.ServiceInput) (model.Service, error) {
	if err := validate.Struct(in); err != nil {
		return model.Service{}, c.fail(err, "Failed to update service")
	}
	return run(ctx, c.Cache, "update", "Failed to update service",
		func(ctx context.Context) (model.Service, error) { return c.api.UpdateService(ctx, id, in) },
		func(s model.Service) { c.replace(id, s) })
}

func (c *ServiceCache) Remove(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "remove", "Failed to delete service",
		func(ctx context.Context) error { return c.api.DeleteService(ctx, id) },
		func() { c.remove(id) })
	return err == nil, err
}

// Active returns the active services regardless of filters.
func (c *ServiceCache) Active() []model.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Service
	for _, s := range c.items {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out
}

// containsFold reports whether any field contains q, ignoring case.
func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
