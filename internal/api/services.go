package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/homeservices/internal/model"
)

// ServiceQuery narrows GET /services.
type ServiceQuery struct {
	Search       string
	Pincode      string
	ShowInactive bool
}

func (q ServiceQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Pincode != "" {
		v.Set("pincode", q.Pincode)
	}
	if q.ShowInactive {
		v.Set("show_inactive", "true")
	}
	return v
}

type servicesEnvelope struct {
	Services []model.Service `json:"services"`
}

type serviceEnvelope struct {
	Service model.Service `json:"service"`
}

// ListServices returns the service catalog.
func (c *Client) ListServices(ctx context.Context, q ServiceQuery) ([]model.Service, error) {
	var out servicesEnvelope
	if err := c.do(ctx, http.MethodGet, "/services", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Services, nil
}

// GetService returns one catalog entry.
func (c *Client) GetService(ctx context.Context, id int64) (model.Service, error) {
	var out serviceEnvelope
	err := c.do(ctx, http.MethodGet, idPath("/services", id), nil, nil, &out)
	return out.Service, err
}

// CreateService adds a catalog entry (admin).
func (c *Client) CreateService(ctx context.Context, in model.ServiceInput) (model.Service, error) {
	var out serviceEnvelope
	err := c.do(ctx, http.MethodPost, "/services", nil, in, &out)
	return out.Service, err
}

// UpdateService edits a catalog entry (admin).
func (c *Client) UpdateService(ctx context.Context, id int64, in model.ServiceInput) (model.Service, error) {
	var out serviceEnvelope
	err := c.do(ctx, http.MethodPut, idPath("/services", id), nil, in, &out)
	return out.Service, err
}

// DeleteService removes a catalog entry (admin).
func (c *Client) DeleteService(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/services", id), nil, nil, nil)
}
