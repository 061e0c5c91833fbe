package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/metrics"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/session"
)

type countingHandler struct{ n atomic.Int32 }

// recorder collects values written from server goroutines.
type recorder[T any] struct {
	mu   sync.Mutex
	vals []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.vals...)
}

func (r *recorder[T]) last() T {
	all := r.all()
	return all[len(all)-1]
}

func (h *countingHandler) Invalidate(context.Context) { h.n.Add(1) }

func newTestClient(t *testing.T, h http.Handler) (*Client, *session.MemoryStore, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st := session.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	c, err := New(st, Options{BaseURL: srv.URL + "/api", Logger: zaptest.NewLogger(t), Metrics: m})
	require.NoError(t, err)
	return c, st, m
}

func authed(t *testing.T, st session.Store) {
	t.Helper()
	require.NoError(t, st.Set(context.Background(), model.Session{
		AccessToken:  "tok",
		RefreshToken: "ref",
		User:         &model.User{ID: 1, Role: model.RoleCustomer},
	}))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("want error for nil store")
	}
	if _, err := New(session.NewMemoryStore(), Options{BaseURL: "::bad"}); err == nil {
		t.Fatalf("want error for bad base url")
	}
	c, err := New(session.NewMemoryStore(), Options{BaseURL: "http://x/api/"})
	require.NoError(t, err)
	require.Equal(t, "http://x/api", c.BaseURL())

	c, err = New(session.NewMemoryStore(), Options{})
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.BaseURL())

	_, err = New(session.NewMemoryStore(), Options{CACert: "/does/not/exist.pem"})
	require.Error(t, err)
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	var rec recorder[http.Header]
	c, st, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.Header.Clone())
		_, _ = io.WriteString(w, `{"services":[{"id":1,"name":"Plumbing","base_price":100}]}`)
	}))

	// anonymous: no bearer
	_, err := c.ListServices(context.Background(), ServiceQuery{})
	require.NoError(t, err)
	got := rec.last()
	require.Empty(t, got.Get("Authorization"))
	require.Equal(t, "application/json", got.Get("Accept"))
	_, err = uuid.FromString(got.Get("X-Request-ID"))
	require.NoError(t, err)

	authed(t, st)
	svcs, err := c.ListServices(context.Background(), ServiceQuery{})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", rec.last().Get("Authorization"))
	require.Len(t, svcs, 1)
	require.Equal(t, "Plumbing", svcs[0].Name)
}

func TestClient_JSONBody(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		var cr model.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cr)
		_ = json.NewEncoder(w).Encode(model.AuthResponse{
			AccessToken:  "a-" + cr.Email,
			RefreshToken: "r",
			User:         model.User{ID: 3, Email: cr.Email, Role: model.RoleCustomer},
		})
	}))

	res, err := c.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "a-a@b.com", res.AccessToken)
	require.Equal(t, model.RoleCustomer, res.User.Role)
}

func TestClient_Unauthorized(t *testing.T) {
	t.Parallel()

	c, st, m := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"msg":"Token has expired"}`)
	}))
	h := &countingHandler{}
	c.SetUnauthorizedHandler(h)
	authed(t, st)

	_, err := c.ListRequests(context.Background(), RequestQuery{})
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	ae, ok := errs.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, errs.KindAuth, ae.Kind)
	require.Equal(t, "Token has expired", ae.Message)

	s, _ := st.Get(context.Background())
	require.True(t, s.Empty(), "401 must clear the session")
	require.Equal(t, int32(1), h.n.Load())
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionTeardowns.WithLabelValues("unauthorized")))
}

func TestClient_ErrorBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		kind   errs.Kind
		msg    string
		is     error
	}{
		{"validation", 400, `{"message":"Service ID is required"}`, errs.KindValidation, "Service ID is required", errs.ErrValidation},
		{"forbidden", 403, `{"message":"Admin access required"}`, errs.KindValidation, "Admin access required", errs.ErrForbidden},
		{"not found", 404, `<html>`, errs.KindValidation, "", errs.ErrNotFound},
		{"error field", 409, `{"error":"conflict"}`, errs.KindValidation, "conflict", errs.ErrValidation},
		{"server", 500, `{"message":"An error occurred: boom"}`, errs.KindServer, "An error occurred: boom", nil},
		{"server empty", 502, ``, errs.KindServer, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, st, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			authed(t, st)

			_, err := c.GetService(context.Background(), 9)
			ae, ok := errs.AsAPIError(err)
			require.True(t, ok, "want APIError, got %v", err)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.status, ae.Status)
			assert.Equal(t, tt.msg, ae.Message)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}

			// only 401 tears the session down
			s, _ := st.Get(context.Background())
			assert.True(t, s.Authenticated())
		})
	}
}

func TestClient_Transport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c, err := New(session.NewMemoryStore(), Options{BaseURL: base + "/api", Metrics: m})
	require.NoError(t, err)

	_, err = c.ListServices(context.Background(), ServiceQuery{})
	ae, ok := errs.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, errs.KindTransport, ae.Kind)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "error")))
}

func TestClient_Queries(t *testing.T) {
	t.Parallel()

	var rec recorder[string]
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery)
		_, _ = io.WriteString(w, `{}`)
	}))
	ctx := context.Background()

	_, _ = c.ListServices(ctx, ServiceQuery{Search: "clean", Pincode: "560001", ShowInactive: true})
	_, _ = c.ListRequests(ctx, RequestQuery{Status: "closed", DateFrom: "2024-01-01", DateTo: "2024-02-01"})
	_, _ = c.AvailableRequests(ctx)
	_, _ = c.RequestReviews(ctx, 5)
	_, _ = c.ListNotifications(ctx, NotificationQuery{UnreadOnly: true, Limit: 10})
	_, _ = c.ListProfessionals(ctx, ProfessionalQuery{ServiceID: 2, AllProfiles: true})
	_, _ = c.AdminProfessionals(ctx, AdminQuery{Status: "active", VerificationStatus: "pending"})
	_, _ = c.AdminCustomers(ctx, AdminQuery{Search: "asha"})
	_ = c.CancelRequest(ctx, 4)
	_, _ = c.RequestAction(ctx, 4, model.RequestAction{Action: "accept"})
	_ = c.MarkNotificationRead(ctx, 8)
	_ = c.MarkAllNotificationsRead(ctx)
	_ = c.DeleteNotification(ctx, 8)

	require.Equal(t, []string{
		"GET /api/services?pincode=560001&q=clean&show_inactive=true",
		"GET /api/service-requests?date_from=2024-01-01&date_to=2024-02-01&status=closed",
		"GET /api/service-requests?available=true",
		"GET /api/reviews?service_request_id=5",
		"GET /api/notifications?limit=10&unread_only=true",
		"GET /api/professionals?service_id=2&verified_only=false",
		"GET /api/admin/professionals?status=active&verification_status=pending",
		"GET /api/admin/customers?search=asha",
		"DELETE /api/service-requests/4?",
		"POST /api/service-requests/4/action?",
		"PUT /api/notifications/8?",
		"PUT /api/notifications?",
		"DELETE /api/notifications/8?",
	}, rec.all())
}

func TestClient_AdminStatusBodies(t *testing.T) {
	t.Parallel()

	var rec recorder[string]
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.add(string(b))
		if strings.HasSuffix(r.URL.Path, "/customers") {
			_, _ = io.WriteString(w, `{"customer":{"id":2,"is_active":false}}`)
			return
		}
		_, _ = io.WriteString(w, `{"professional":{"id":1,"is_active":true}}`)
	}))

	p, err := c.SetProfessionalStatus(context.Background(), 1, AccountActive)
	require.NoError(t, err)
	require.True(t, p.IsActive)
	cu, err := c.SetCustomerStatus(context.Background(), 2, AccountInactive)
	require.NoError(t, err)
	require.False(t, cu.IsActive)

	bodies := rec.all()
	require.JSONEq(t, `{"professional_id":1,"status":"active"}`, bodies[0])
	require.JSONEq(t, `{"customer_id":2,"status":"inactive"}`, bodies[1])
}

func TestClient_UploadDocument(t *testing.T) {
	t.Parallel()

	c, st, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/professionals/3/verify" {
			http.NotFound(w, r)
			return
		}
		f, hdr, err := r.FormFile("document")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"No document part in the request"}`)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"professional": model.Professional{ID: 3, DocumentsURL: hdr.Filename + ":" + string(b), VerificationStatus: "pending"},
		})
	}))
	authed(t, st)

	p, err := c.UploadDocument(context.Background(), 3, "id.pdf", strings.NewReader("PDF"))
	require.NoError(t, err)
	require.Equal(t, "id.pdf:PDF", p.DocumentsURL)
	require.Equal(t, model.VerificationPending, p.VerificationStatus)
}

func TestClient_Dashboard(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{
			"total_counts":{"customers":4,"professionals":3,"services":2,"service_requests":9},
			"active_counts":{"customers":4,"professionals":2,"services":2},
			"recent_activity":{"new_customers":1,"new_professionals":0,"new_requests":5},
			"request_status":{"requested":3,"closed":6},
			"pending_verifications":1}`)
	}))

	st, err := c.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, st.TotalCounts.ServiceRequests)
	require.Equal(t, 6, st.RequestStatus[model.StatusClosed])
	require.Equal(t, 1, st.PendingVerifications)
}

func TestClient_DecodeError(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"service": [`)
	}))
	_, err := c.GetService(context.Background(), 1)
	require.Error(t, err)
	var ae *errs.APIError
	require.False(t, errors.As(err, &ae))
}
