package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

// ProfessionalQuery narrows GET /professionals.
type ProfessionalQuery struct {
	ServiceID int64
	// AllProfiles lists unverified profiles too; the backend defaults to verified only.
	AllProfiles bool
	RatingMin   float64
}

func (q ProfessionalQuery) values() url.Values {
	v := url.Values{}
	if q.ServiceID > 0 {
		v.Set("service_id", strconv.FormatInt(q.ServiceID, 10))
	}
	if q.AllProfiles {
		v.Set("verified_only", "false")
	}
	if q.RatingMin > 0 {
		v.Set("rating_min", strconv.FormatFloat(q.RatingMin, 'f', -1, 64))
	}
	return v
}

type professionalEnvelope struct {
	Professional model.Professional `json:"professional"`
}

type professionalsEnvelope struct {
	Professionals []model.Professional `json:"professionals"`
}

// ListProfessionals returns public professional profiles.
func (c *Client) ListProfessionals(ctx context.Context, q ProfessionalQuery) ([]model.Professional, error) {
	var out professionalsEnvelope
	if err := c.do(ctx, http.MethodGet, "/professionals", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Professionals, nil
}

// GetProfessional returns one profile.
func (c *Client) GetProfessional(ctx context.Context, id int64) (model.Professional, error) {
	var out professionalEnvelope
	err := c.do(ctx, http.MethodGet, idPath("/professionals", id), nil, nil, &out)
	return out.Professional, err
}

// UpdateProfessional edits the caller's own profile.
func (c *Client) UpdateProfessional(ctx context.Context, id int64, in model.ProfessionalInput) (model.Professional, error) {
	var out professionalEnvelope
	err := c.do(ctx, http.MethodPut, idPath("/professionals", id), nil, in, &out)
	return out.Professional, err
}

// DeleteProfessional removes a professional account (admin).
func (c *Client) DeleteProfessional(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/professionals", id), nil, nil, nil)
}

// VerifyProfessional records an admin decision on a profile.
func (c *Client) VerifyProfessional(ctx context.Context, id int64, v model.Verification) (model.Professional, error) {
	var out professionalEnvelope
	err := c.do(ctx, http.MethodPost, idPath("/professionals", id)+"/verify", nil, v, &out)
	return out.Professional, err
}

// UploadDocument sends a verification document as multipart form field "document".
func (c *Client) UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) (model.Professional, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return model.Professional{}, fmt.Errorf("multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return model.Professional{}, fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return model.Professional{}, fmt.Errorf("multipart: %w", err)
	}

	var out professionalEnvelope
	err = c.send(ctx, http.MethodPut, idPath("/professionals", id)+"/verify", nil, mw.FormDataContentType(), &buf, &out)
	return out.Professional, err
}
