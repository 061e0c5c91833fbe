package store

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/validate"
)

// ProfessionalAPI is the professional part of the backend, admin and self-service.
type ProfessionalAPI interface {
	AdminProfessionals(ctx context.Context, q api.AdminQuery) ([]model.Professional, error)
	GetProfessional(ctx context.Context, id int64) (model.Professional, error)
	SetProfessionalStatus(ctx context.Context, id int64, status string) (model.Professional, error)
	VerifyProfessional(ctx context.Context, id int64, v model.Verification) (model.Professional, error)
	UpdateProfessional(ctx context.Context, id int64, in model.ProfessionalInput) (model.Professional, error)
	UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) (model.Professional, error)
	DeleteProfessional(ctx context.Context, id int64) error
}

// ProfessionalFilters narrow the professional list. Status is "active" or "inactive".
type ProfessionalFilters struct {
	Status             string
	ServiceID          int64
	VerificationStatus string
	Search             string
}

// ProfessionalFilterPatch is merged into ProfessionalFilters; nil fields are kept.
type ProfessionalFilterPatch struct {
	Status             *string
	ServiceID          *int64
	VerificationStatus *string
	Search             *string
}

func professionalMatches(p model.Professional, f ProfessionalFilters) bool {
	if f.Status != "" && p.IsActive != (f.Status == api.AccountActive) {
		return false
	}
	if f.ServiceID != 0 && p.ServiceID != f.ServiceID {
		return false
	}
	if f.VerificationStatus != "" && p.VerificationStatus != f.VerificationStatus {
		return false
	}
	if f.Search != "" {
		return containsFold(f.Search, p.Name, p.Email, p.ServiceName)
	}
	return true
}

// ProfessionalCache caches professional profiles for moderation and the
// signed-in professional's own profile.
type ProfessionalCache struct {
	*Cache[model.Professional, ProfessionalFilters]
	api       ProfessionalAPI
	dashboard *DashboardCache
}

// NewProfessionalCache builds the cache. dashboard may be nil; when set, Verify
// keeps its pending counter in step.
func NewProfessionalCache(a ProfessionalAPI, dashboard *DashboardCache, log *zap.Logger) *ProfessionalCache {
	return &ProfessionalCache{
		Cache:     newCache("professionals", func(p model.Professional) int64 { return p.ID }, ProfessionalFilters{}, professionalMatches, log),
		api:       a,
		dashboard: dashboard,
	}
}

// SetFilters merges p into the active filters.
func (c *ProfessionalCache) SetFilters(p ProfessionalFilterPatch) {
	c.updateFilters(func(f *ProfessionalFilters) {
		if p.Status != nil {
			f.Status = *p.Status
		}
		if p.ServiceID != nil {
			f.ServiceID = *p.ServiceID
		}
		if p.VerificationStatus != nil {
			f.VerificationStatus = *p.VerificationStatus
		}
		if p.Search != nil {
			f.Search = *p.Search
		}
	})
}

// FetchAll replaces the list. Status, service and verification filters are sent to the backend.
func (c *ProfessionalCache) FetchAll(ctx context.Context) ([]model.Professional, error) {
	f := c.Filters()
	q := api.AdminQuery{Status: f.Status, ServiceID: f.ServiceID, VerificationStatus: f.VerificationStatus}
	return run(ctx, c.Cache, "fetch_all", "Failed to fetch professionals",
		func(ctx context.Context) ([]model.Professional, error) { return c.api.AdminProfessionals(ctx, q) },
		c.replaceAll)
}

func (c *ProfessionalCache) FetchOne(ctx context.Context, id int64) (model.Professional, error) {
	return run(ctx, c.Cache, "fetch_one", "Failed to fetch professional",
		func(ctx context.Context) (model.Professional, error) { return c.api.GetProfessional(ctx, id) },
		c.setCurrent)
}

// UpdateStatus activates or deactivates the account.
func (c *ProfessionalCache) UpdateStatus(ctx context.Context, id int64, status string) (model.Professional, error) {
	return run(ctx, c.Cache, "update_status", "Failed to update professional status",
		func(ctx context.Context) (model.Professional, error) { return c.api.SetProfessionalStatus(ctx, id, status) },
		func(p model.Professional) { c.replace(id, p) })
}

// Verify approves or rejects the profile and decrements the dashboard's pending count.
func (c *ProfessionalCache) Verify(ctx context.Context, id int64, action, message string) (model.Professional, error) {
	v := model.Verification{Action: action, Message: message}
	if err := validate.Struct(v); err != nil {
		return model.Professional{}, c.fail(err, "Failed to verify professional")
	}
	p, err := run(ctx, c.Cache, "verify", "Failed to verify professional",
		func(ctx context.Context) (model.Professional, error) { return c.api.VerifyProfessional(ctx, id, v) },
		func(p model.Professional) { c.replace(id, p) })
	if err == nil && c.dashboard != nil {
		c.dashboard.verified()
	}
	return p, err
}

func (c *ProfessionalCache) Update(ctx context.Context, id int64, in model.ProfessionalInput) (model.Professional, error) {
	if err := validate.Struct(in); err != nil {
		return model.Professional{}, c.fail(err, "Failed to update profile")
	}
	return run(ctx, c.Cache, "update", "Failed to update profile",
		func(ctx context.Context) (model.Professional, error) { return c.api.UpdateProfessional(ctx, id, in) },
		func(p model.Professional) { c.replace(id, p) })
}

// UploadDocument sends a verification document for the profile.
func (c *ProfessionalCache) UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) (model.Professional, error) {
	return run(ctx, c.Cache, "upload_document", "Failed to upload document",
		func(ctx context.Context) (model.Professional, error) { return c.api.UploadDocument(ctx, id, filename, r) },
		func(p model.Professional) { c.replace(id, p) })
}

func (c *ProfessionalCache) Remove(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "remove", "Failed to delete professional",
		func(ctx context.Context) error { return c.api.DeleteProfessional(ctx, id) },
		func() { c.remove(id) })
	return err == nil, err
}

// CustomerAPI is the customer part of the backend, admin and self-service.
type CustomerAPI interface {
	AdminCustomers(ctx context.Context, q api.AdminQuery) ([]model.Customer, error)
	GetCustomer(ctx context.Context, id int64) (model.Customer, error)
	SetCustomerStatus(ctx context.Context, id int64, status string) (model.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in model.CustomerInput) (model.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

// CustomerFilters narrow the customer list. Search matches name, email or pincode.
type CustomerFilters struct {
	Status string
	Search string
}

// CustomerFilterPatch is merged into CustomerFilters; nil fields are kept.
type CustomerFilterPatch struct {
	Status *string
	Search *string
}

func customerMatches(cu model.Customer, f CustomerFilters) bool {
	if f.Status != "" && cu.IsActive != (f.Status == api.AccountActive) {
		return false
	}
	if f.Search != "" {
		return containsFold(f.Search, cu.Name, cu.Email, cu.Pincode)
	}
	return true
}

// CustomerCache caches customer profiles.
type CustomerCache struct {
	*Cache[model.Customer, CustomerFilters]
	api CustomerAPI
}

func NewCustomerCache(a CustomerAPI, log *zap.Logger) *CustomerCache {
	return &CustomerCache{
		Cache: newCache("customers", func(cu model.Customer) int64 { return cu.ID }, CustomerFilters{}, customerMatches, log),
		api:   a,
	}
}

// SetFilters merges p into the active filters.
func (c *CustomerCache) SetFilters(p CustomerFilterPatch) {
	c.updateFilters(func(f *CustomerFilters) {
		if p.Status != nil {
			f.Status = *p.Status
		}
		if p.Search != nil {
			f.Search = *p.Search
		}
	})
}

// FetchAll replaces the list. Both filters are also sent to the backend.
func (c *CustomerCache) FetchAll(ctx context.Context) ([]model.Customer, error) {
	f := c.Filters()
	q := api.AdminQuery{Status: f.Status, Search: f.Search}
	return run(ctx, c.Cache, "fetch_all", "Failed to fetch customers",
		func(ctx context.Context) ([]model.Customer, error) { return c.api.AdminCustomers(ctx, q) },
		c.replaceAll)
}

func (c *CustomerCache) FetchOne(ctx context.Context, id int64) (model.Customer, error) {
	return run(ctx, c.Cache, "fetch_one", "Failed to fetch customer",
		func(ctx context.Context) (model.Customer, error) { return c.api.GetCustomer(ctx, id) },
		c.setCurrent)
}

// UpdateStatus activates or deactivates the account.
func (c *CustomerCache) UpdateStatus(ctx context.Context, id int64, status string) (model.Customer, error) {
	return run(ctx, c.Cache, "update_status", "Failed to update customer status",
		func(ctx context.Context) (model.Customer, error) { return c.api.SetCustomerStatus(ctx, id, status) },
		func(cu model.Customer) { c.replace(id, cu) })
}

func (c *CustomerCache) Update(ctx context.Context, id int64, in model.CustomerInput) (model.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return model.Customer{}, c.fail(err, "Failed to update profile")
	}
	return run(ctx, c.Cache, "update", "Failed to update profile",
		func(ctx context.Context) (model.Customer, error) { return c.api.UpdateCustomer(ctx, id, in) },
		func(cu model.Customer) { c.replace(id, cu) })
}

func (c *CustomerCache) Remove(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "remove", "Failed to delete customer",
		func(ctx context.Context) error { return c.api.DeleteCustomer(ctx, id) },
		func() { c.remove(id) })
	return err == nil, err
}

// DashboardAPI serves the admin aggregate counters.
type DashboardAPI interface {
	Dashboard(ctx context.Context) (model.DashboardStats, error)
}

// DashboardCache holds the admin statistics in the current slot.
type DashboardCache struct {
	*Cache[model.DashboardStats, struct{}]
	api DashboardAPI
}

func NewDashboardCache(a DashboardAPI, log *zap.Logger) *DashboardCache {
	return &DashboardCache{
		Cache: newCache("dashboard",
			func(model.DashboardStats) int64 { return 0 },
			struct{}{},
			func(model.DashboardStats, struct{}) bool { return true },
			log),
		api: a,
	}
}

func (c *DashboardCache) Fetch(ctx context.Context) (model.DashboardStats, error) {
	return run(ctx, c.Cache, "fetch", "Failed to fetch dashboard statistics", c.api.Dashboard, c.setCurrent)
}

// PendingVerifications is 0 until stats are fetched.
func (c *DashboardCache) PendingVerifications() int {
	s, ok := c.Current()
	if !ok {
		return 0
	}
	return s.PendingVerifications
}

func (c *DashboardCache) verified() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modify(0, func(s *model.DashboardStats) {
		if s.PendingVerifications > 0 {
			s.PendingVerifications--
		}
	})
}
