package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

// Account status values accepted by the admin moderation endpoints.
const (
	AccountActive   = "active"
	AccountInactive = "inactive"
)

// AdminQuery narrows the admin listings. ServiceID and VerificationStatus apply to professionals,
// Search to customers.
type AdminQuery struct {
	Status             string
	ServiceID          int64
	VerificationStatus string
	Search             string
}

func (q AdminQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.ServiceID > 0 {
		v.Set("service_id", strconv.FormatInt(q.ServiceID, 10))
	}
	if q.VerificationStatus != "" {
		v.Set("verification_status", q.VerificationStatus)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Dashboard returns the admin aggregate counters.
func (c *Client) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	var out model.DashboardStats
	err := c.do(ctx, http.MethodGet, "/admin/dashboard", nil, nil, &out)
	return out, err
}

// AdminProfessionals lists every professional for moderation.
func (c *Client) AdminProfessionals(ctx context.Context, q AdminQuery) ([]model.Professional, error) {
	var out professionalsEnvelope
	if err := c.do(ctx, http.MethodGet, "/admin/professionals", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Professionals, nil
}

// SetProfessionalStatus activates or deactivates a professional account.
func (c *Client) SetProfessionalStatus(ctx context.Context, id int64, status string) (model.Professional, error) {
	body := struct {
		ProfessionalID int64  `json:"professional_id"`
		Status         string `json:"status"`
	}{id, status}
	var out professionalEnvelope
	err := c.do(ctx, http.MethodPut, "/admin/professionals", nil, body, &out)
	return out.Professional, err
}

// AdminCustomers lists every customer for moderation.
func (c *Client) AdminCustomers(ctx context.Context, q AdminQuery) ([]model.Customer, error) {
	var out struct {
		Customers []model.Customer `json:"customers"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/customers", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// SetCustomerStatus activates or deactivates a customer account.
func (c *Client) SetCustomerStatus(ctx context.Context, id int64, status string) (model.Customer, error) {
	body := struct {
		CustomerID int64  `json:"customer_id"`
		Status     string `json:"status"`
	}{id, status}
	var out customerEnvelope
	err := c.do(ctx, http.MethodPut, "/admin/customers", nil, body, &out)
	return out.Customer, err
}
