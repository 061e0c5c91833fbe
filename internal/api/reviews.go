package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

type reviewEnvelope struct {
	Review model.Review `json:"review"`
}

// SubmitReview rates a completed request.
func (c *Client) SubmitReview(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	var out reviewEnvelope
	err := c.do(ctx, http.MethodPost, "/reviews", nil, in, &out)
	return out.Review, err
}

// UpdateReview edits an existing review.
func (c *Client) UpdateReview(ctx context.Context, id int64, in model.ReviewInput) (model.Review, error) {
	var out reviewEnvelope
	err := c.do(ctx, http.MethodPut, idPath("/reviews", id), nil, in, &out)
	return out.Review, err
}

// RequestReviews lists the reviews attached to a service request.
func (c *Client) RequestReviews(ctx context.Context, requestID int64) ([]model.Review, error) {
	var out struct {
		Reviews []model.Review `json:"reviews"`
	}
	q := url.Values{"service_request_id": {strconv.FormatInt(requestID, 10)}}
	if err := c.do(ctx, http.MethodGet, "/reviews", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Reviews, nil
}
