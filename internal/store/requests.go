package store

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/validate"
)

// RequestAPI is the service-request part of the backend.
type RequestAPI interface {
	ListRequests(ctx context.Context, q api.RequestQuery) ([]model.ServiceRequest, error)
	AvailableRequests(ctx context.Context) ([]model.ServiceRequest, error)
	GetRequest(ctx context.Context, id int64) (model.ServiceRequest, error)
	CreateRequest(ctx context.Context, in model.RequestInput) (model.ServiceRequest, error)
	UpdateRequest(ctx context.Context, id int64, in model.RequestInput) (model.ServiceRequest, error)
	CancelRequest(ctx context.Context, id int64) error
	RequestAction(ctx context.Context, id int64, a model.RequestAction) (model.ServiceRequest, error)
	SubmitReview(ctx context.Context, in model.ReviewInput) (model.Review, error)
	UpdateReview(ctx context.Context, id int64, in model.ReviewInput) (model.Review, error)
	RequestReviews(ctx context.Context, requestID int64) ([]model.Review, error)
}

// RequestFilters narrow service requests. Date bounds apply to the request date.
type RequestFilters struct {
	Status   string
	DateFrom time.Time
	DateTo   time.Time
	Search   string
}

// RequestFilterPatch is merged into RequestFilters; nil fields are kept.
type RequestFilterPatch struct {
	Status   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   *string
}

const isoSeconds = "2006-01-02T15:04:05"

func requestMatches(r model.ServiceRequest, f RequestFilters) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	// requests without a date are never excluded by the range
	if !r.RequestDate.IsZero() {
		if !f.DateFrom.IsZero() && r.RequestDate.Before(f.DateFrom) {
			return false
		}
		if !f.DateTo.IsZero() && r.RequestDate.After(f.DateTo) {
			return false
		}
	}
	if f.Search != "" {
		return containsFold(f.Search, r.ServiceName, r.CustomerName, r.ProfessionalName, r.Remarks)
	}
	return true
}

// RequestCache caches service requests. New requests are prepended.
// Professionals also get the list of open requests they may accept.
type RequestCache struct {
	*Cache[model.ServiceRequest, RequestFilters]
	api RequestAPI

	available []model.ServiceRequest // guarded by Cache.mu
}

func NewRequestCache(a RequestAPI, log *zap.Logger) *RequestCache {
	return &RequestCache{
		Cache: newCache("requests", func(r model.ServiceRequest) int64 { return r.ID }, RequestFilters{}, requestMatches, log),
		api:   a,
	}
}

// SetFilters merges p into the active filters.
func (c *RequestCache) SetFilters(p RequestFilterPatch) {
	c.updateFilters(func(f *RequestFilters) {
		if p.Status != nil {
			f.Status = *p.Status
		}
		if p.DateFrom != nil {
			f.DateFrom = *p.DateFrom
		}
		if p.DateTo != nil {
			f.DateTo = *p.DateTo
		}
		if p.Search != nil {
			f.Search = *p.Search
		}
	})
}

// Reset also drops the available list.
func (c *RequestCache) Reset() {
	c.Cache.Reset()
	c.mu.Lock()
	c.available = nil
	c.mu.Unlock()
}

// FetchAll replaces the requests. Status and date filters are also sent to the backend.
func (c *RequestCache) FetchAll(ctx context.Context) ([]model.ServiceRequest, error) {
	f := c.Filters()
	q := api.RequestQuery{Status: f.Status}
	if !f.DateFrom.IsZero() {
		q.DateFrom = f.DateFrom.UTC().Format(isoSeconds)
	}
	if !f.DateTo.IsZero() {
		q.DateTo = f.DateTo.UTC().Format(isoSeconds)
	}
	return run(ctx, c.Cache, "fetch_all", "Failed to fetch service requests",
		func(ctx context.Context) ([]model.ServiceRequest, error) { return c.api.ListRequests(ctx, q) },
		c.replaceAll)
}

func (c *RequestCache) FetchOne(ctx context.Context, id int64) (model.ServiceRequest, error) {
	return run(ctx, c.Cache, "fetch_one", "Failed to fetch service request",
		func(ctx context.Context) (model.ServiceRequest, error) { return c.api.GetRequest(ctx, id) },
		c.setCurrent)
}

func (c *RequestCache) Create(ctx context.Context, in model.RequestInput) (model.ServiceRequest, error) {
	if err := validate.Struct(in); err != nil {
		return model.ServiceRequest{}, c.fail(err, "Failed to create service request")
	}
	return run(ctx, c.Cache, "create", "Failed to create service request",
		func(ctx context.Context) (model.ServiceRequest, error) { return c.api.CreateRequest(ctx, in) },
		func(r model.ServiceRequest) { c.items = slices.Insert(c.items, 0, r) })
}

// Update changes schedule or remarks. Only the fields set in in are sent.
func (c *RequestCache) Update(ctx context.Context, id int64, in model.RequestInput) (model.ServiceRequest, error) {
	return run(ctx, c.Cache, "update", "Failed to update service request",
		func(ctx context.Context) (model.ServiceRequest, error) { return c.api.UpdateRequest(ctx, id, in) },
		func(r model.ServiceRequest) { c.replace(id, r) })
}

// Cancel cancels the request on the backend and marks it cancelled locally.
func (c *RequestCache) Cancel(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "cancel", "Failed to cancel service request",
		func(ctx context.Context) error { return c.api.CancelRequest(ctx, id) },
		func() {
			c.modify(id, func(r *model.ServiceRequest) { r.Status = model.StatusCancelled })
		})
	return err == nil, err
}

// Remove cancels the request on the backend and drops it from the cache.
func (c *RequestCache) Remove(ctx context.Context, id int64) (bool, error) {
	err := exec(ctx, c.Cache, "remove", "Failed to cancel service request",
		func(ctx context.Context) error { return c.api.CancelRequest(ctx, id) },
		func() { c.remove(id) })
	return err == nil, err
}

// Action applies a lifecycle transition. A rejected request leaves the available list.
func (c *RequestCache) Action(ctx context.Context, id int64, action, reason string) (model.ServiceRequest, error) {
	a := model.RequestAction{Action: action, Reason: reason}
	fallback := "Failed to " + action + " service request"
	if err := validate.Struct(a); err != nil {
		return model.ServiceRequest{}, c.fail(err, fallback)
	}
	return run(ctx, c.Cache, "action", fallback,
		func(ctx context.Context) (model.ServiceRequest, error) { return c.api.RequestAction(ctx, id, a) },
		func(r model.ServiceRequest) {
			c.replace(id, r)
			if action == "reject" {
				c.available = slices.DeleteFunc(c.available, func(x model.ServiceRequest) bool { return x.ID == id })
			}
		})
}

// FetchAvailable loads the open requests a professional may accept.
func (c *RequestCache) FetchAvailable(ctx context.Context) ([]model.ServiceRequest, error) {
	return run(ctx, c.Cache, "fetch_available", "Failed to fetch available requests",
		c.api.AvailableRequests,
		func(rs []model.ServiceRequest) { c.available = slices.Clone(rs) })
}

// Available returns the open requests loaded by FetchAvailable.
func (c *RequestCache) Available() []model.ServiceRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.available)
}

// SubmitReview rates a request and attaches the review to it.
func (c *RequestCache) SubmitReview(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	if err := validate.Struct(in); err != nil {
		return model.Review{}, c.fail(err, "Failed to submit review")
	}
	return run(ctx, c.Cache, "submit_review", "Failed to submit review",
		func(ctx context.Context) (model.Review, error) { return c.api.SubmitReview(ctx, in) },
		func(rv model.Review) {
			c.modify(in.ServiceRequestID, func(r *model.ServiceRequest) {
				r.Reviews = append(slices.Clone(r.Reviews), rv)
			})
		})
}

// UpdateReview edits a review and replaces it on its request.
func (c *RequestCache) UpdateReview(ctx context.Context, id int64, in model.ReviewInput) (model.Review, error) {
	if err := validate.Struct(in); err != nil {
		return model.Review{}, c.fail(err, "Failed to update review")
	}
	return run(ctx, c.Cache, "update_review", "Failed to update review",
		func(ctx context.Context) (model.Review, error) { return c.api.UpdateReview(ctx, id, in) },
		func(rv model.Review) {
			c.modify(in.ServiceRequestID, func(r *model.ServiceRequest) {
				reviews := slices.Clone(r.Reviews)
				if i := slices.IndexFunc(reviews, func(x model.Review) bool { return x.ID == id }); i >= 0 {
					reviews[i] = rv
				}
				r.Reviews = reviews
			})
		})
}

// FetchReviews loads the reviews of a request into the cache.
func (c *RequestCache) FetchReviews(ctx context.Context, requestID int64) ([]model.Review, error) {
	return run(ctx, c.Cache, "fetch_reviews", "Failed to fetch reviews",
		func(ctx context.Context) ([]model.Review, error) { return c.api.RequestReviews(ctx, requestID) },
		func(rvs []model.Review) {
			c.modify(requestID, func(r *model.ServiceRequest) { r.Reviews = slices.Clone(rvs) })
		})
}

// Pending returns requests waiting for or assigned to a professional.
func (c *RequestCache) Pending() []model.ServiceRequest {
	return c.where(func(r model.ServiceRequest) bool {
		return r.Status == model.StatusRequested || r.Status == model.StatusAssigned
	})
}

// Completed returns closed requests.
func (c *RequestCache) Completed() []model.ServiceRequest {
	return c.where(func(r model.ServiceRequest) bool { return r.Status == model.StatusClosed })
}

func (c *RequestCache) where(keep func(model.ServiceRequest) bool) []model.ServiceRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.ServiceRequest
	for _, r := range c.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
