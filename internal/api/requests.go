package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/homeservices/internal/model"
)

// RequestQuery narrows GET /service-requests. Dates are ISO-8601.
type RequestQuery struct {
	Status    string
	DateFrom  string
	DateTo    string
	Available bool
}

func (q RequestQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.DateFrom != "" {
		v.Set("date_from", q.DateFrom)
	}
	if q.DateTo != "" {
		v.Set("date_to", q.DateTo)
	}
	if q.Available {
		v.Set("available", "true")
	}
	return v
}

type requestsEnvelope struct {
	ServiceRequests []model.ServiceRequest `json:"service_requests"`
}

type requestEnvelope struct {
	ServiceRequest model.ServiceRequest `json:"service_request"`
}

// ListRequests returns the service requests visible to the caller.
func (c *Client) ListRequests(ctx context.Context, q RequestQuery) ([]model.ServiceRequest, error) {
	var out requestsEnvelope
	if err := c.do(ctx, http.MethodGet, "/service-requests", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.ServiceRequests, nil
}

// AvailableRequests lists open requests a professional may accept.
func (c *Client) AvailableRequests(ctx context.Context) ([]model.ServiceRequest, error) {
	return c.ListRequests(ctx, RequestQuery{Available: true})
}

// GetRequest returns one service request.
func (c *Client) GetRequest(ctx context.Context, id int64) (model.ServiceRequest, error) {
	var out requestEnvelope
	err := c.do(ctx, http.MethodGet, idPath("/service-requests", id), nil, nil, &out)
	return out.ServiceRequest, err
}

// CreateRequest books a service (customer).
func (c *Client) CreateRequest(ctx context.Context, in model.RequestInput) (model.ServiceRequest, error) {
	var out requestEnvelope
	err := c.do(ctx, http.MethodPost, "/service-requests", nil, in, &out)
	return out.ServiceRequest, err
}

// UpdateRequest edits schedule or remarks (customer).
func (c *Client) UpdateRequest(ctx context.Context, id int64, in model.RequestInput) (model.ServiceRequest, error) {
	var out requestEnvelope
	err := c.do(ctx, http.MethodPut, idPath("/service-requests", id), nil, in, &out)
	return out.ServiceRequest, err
}

// CancelRequest cancels a request. The backend keeps the record with status cancelled.
func (c *Client) CancelRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/service-requests", id), nil, nil, nil)
}

// RequestAction applies a lifecycle transition and returns the updated request.
func (c *Client) RequestAction(ctx context.Context, id int64, a model.RequestAction) (model.ServiceRequest, error) {
	var out requestEnvelope
	err := c.do(ctx, http.MethodPost, idPath("/service-requests", id)+"/action", nil, a, &out)
	return out.ServiceRequest, err
}
