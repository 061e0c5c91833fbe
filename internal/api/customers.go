package api

import (
	"context"
	"net/http"

	"github.com/and161185/homeservices/internal/model"
)

type customerEnvelope struct {
	Customer model.Customer `json:"customer"`
}

// GetCustomer returns a customer profile.
func (c *Client) GetCustomer(ctx context.Context, id int64) (model.Customer, error) {
	var out customerEnvelope
	err := c.do(ctx, http.MethodGet, idPath("/customers", id), nil, nil, &out)
	return out.Customer, err
}

// UpdateCustomer edits the caller's own profile.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, in model.CustomerInput) (model.Customer, error) {
	var out customerEnvelope
	err := c.do(ctx, http.MethodPut, idPath("/customers", id), nil, in, &out)
	return out.Customer, err
}

// DeleteCustomer removes a customer account (admin).
func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/customers", id), nil, nil, nil)
}
