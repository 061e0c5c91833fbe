package store

import (
	"context"
	"io"
	"sync"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/model"
)

// fakeAPI implements every backend interface of this package in memory.
// err, when set, is returned by every call. gate, when set, blocks each call
// until it is closed or the context ends.
type fakeAPI struct {
	mu sync.Mutex

	err  error
	gate chan struct{}

	services      []model.Service
	requests      []model.ServiceRequest
	available     []model.ServiceRequest
	notifications api.NotificationList
	professionals []model.Professional
	customers     []model.Customer
	stats         model.DashboardStats

	lastRequestQuery api.RequestQuery
	lastAdminQuery   api.AdminQuery
	lastServiceQuery api.ServiceQuery
	calls            int
}

var (
	_ ServiceAPI      = (*fakeAPI)(nil)
	_ RequestAPI      = (*fakeAPI)(nil)
	_ NotificationAPI = (*fakeAPI)(nil)
	_ ProfessionalAPI = (*fakeAPI)(nil)
	_ CustomerAPI     = (*fakeAPI)(nil)
	_ DashboardAPI    = (*fakeAPI)(nil)
	_ ServiceAPI      = (*api.Client)(nil)
	_ RequestAPI      = (*api.Client)(nil)
	_ NotificationAPI = (*api.Client)(nil)
	_ ProfessionalAPI = (*api.Client)(nil)
	_ CustomerAPI     = (*api.Client)(nil)
	_ DashboardAPI    = (*api.Client)(nil)
)

func (f *fakeAPI) enter(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	gate, err := f.gate, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) ListServices(ctx context.Context, q api.ServiceQuery) ([]model.Service, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastServiceQuery = q
	return append([]model.Service(nil), f.services...), nil
}

func (f *fakeAPI) GetService(ctx context.Context, id int64) (model.Service, error) {
	if err := f.enter(ctx); err != nil {
		return model.Service{}, err
	}
	return model.Service{ID: id, Name: "fetched"}, nil
}

func (f *fakeAPI) CreateService(ctx context.Context, in model.ServiceInput) (model.Service, error) {
	if err := f.enter(ctx); err != nil {
		return model.Service{}, err
	}
	return model.Service{ID: 100, Name: in.Name, BasePrice: in.BasePrice, IsActive: true}, nil
}

func (f *fakeAPI) UpdateService(ctx context.Context, id int64, in model.ServiceInput) (model.Service, error) {
	if err := f.enter(ctx); err != nil {
		return model.Service{}, err
	}
	return model.Service{ID: id, Name: in.Name, BasePrice: in.BasePrice, IsActive: true}, nil
}

func (f *fakeAPI) DeleteService(ctx context.Context, _ int64) error { return f.enter(ctx) }

func (f *fakeAPI) ListRequests(ctx context.Context, q api.RequestQuery) ([]model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequestQuery = q
	return append([]model.ServiceRequest(nil), f.requests...), nil
}

func (f *fakeAPI) AvailableRequests(ctx context.Context) ([]model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	return append([]model.ServiceRequest(nil), f.available...), nil
}

func (f *fakeAPI) GetRequest(ctx context.Context, id int64) (model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return model.ServiceRequest{}, err
	}
	return model.ServiceRequest{ID: id, Status: model.StatusRequested}, nil
}

func (f *fakeAPI) CreateRequest(ctx context.Context, in model.RequestInput) (model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return model.ServiceRequest{}, err
	}
	return model.ServiceRequest{ID: 200, ServiceID: in.ServiceID, Status: model.StatusRequested, Remarks: in.Remarks}, nil
}

func (f *fakeAPI) UpdateRequest(ctx context.Context, id int64, in model.RequestInput) (model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return model.ServiceRequest{}, err
	}
	return model.ServiceRequest{ID: id, Status: model.StatusRequested, Remarks: in.Remarks}, nil
}

func (f *fakeAPI) CancelRequest(ctx context.Context, _ int64) error { return f.enter(ctx) }

func (f *fakeAPI) RequestAction(ctx context.Context, id int64, a model.RequestAction) (model.ServiceRequest, error) {
	if err := f.enter(ctx); err != nil {
		return model.ServiceRequest{}, err
	}
	status := map[string]string{
		"accept":   model.StatusAssigned,
		"reject":   model.StatusRequested,
		"start":    model.StatusInProgress,
		"complete": model.StatusCompleted,
		"close":    model.StatusClosed,
	}[a.Action]
	return model.ServiceRequest{ID: id, Status: status}, nil
}

func (f *fakeAPI) SubmitReview(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	if err := f.enter(ctx); err != nil {
		return model.Review{}, err
	}
	return model.Review{ID: 300, ServiceRequestID: in.ServiceRequestID, Rating: in.Rating, Comment: in.Comment}, nil
}

func (f *fakeAPI) UpdateReview(ctx context.Context, id int64, in model.ReviewInput) (model.Review, error) {
	if err := f.enter(ctx); err != nil {
		return model.Review{}, err
	}
	return model.Review{ID: id, ServiceRequestID: in.ServiceRequestID, Rating: in.Rating, Comment: in.Comment}, nil
}

func (f *fakeAPI) RequestReviews(ctx context.Context, requestID int64) ([]model.Review, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	return []model.Review{{ID: 1, ServiceRequestID: requestID, Rating: 4}}, nil
}

func (f *fakeAPI) ListNotifications(ctx context.Context, _ api.NotificationQuery) (api.NotificationList, error) {
	if err := f.enter(ctx); err != nil {
		return api.NotificationList{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.notifications
	l.Notifications = append([]model.Notification(nil), l.Notifications...)
	return l, nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, _ int64) error { return f.enter(ctx) }
func (f *fakeAPI) MarkAllNotificationsRead(ctx context.Context) error      { return f.enter(ctx) }
func (f *fakeAPI) DeleteNotification(ctx context.Context, _ int64) error   { return f.enter(ctx) }

func (f *fakeAPI) AdminProfessionals(ctx context.Context, q api.AdminQuery) ([]model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAdminQuery = q
	return append([]model.Professional(nil), f.professionals...), nil
}

func (f *fakeAPI) GetProfessional(ctx context.Context, id int64) (model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return model.Professional{}, err
	}
	return model.Professional{ID: id}, nil
}

func (f *fakeAPI) SetProfessionalStatus(ctx context.Context, id int64, status string) (model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return model.Professional{}, err
	}
	return model.Professional{ID: id, IsActive: status == api.AccountActive}, nil
}

func (f *fakeAPI) VerifyProfessional(ctx context.Context, id int64, v model.Verification) (model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return model.Professional{}, err
	}
	st := model.VerificationApproved
	if v.Action == "reject" {
		st = model.VerificationRejected
	}
	return model.Professional{ID: id, VerificationStatus: st}, nil
}

func (f *fakeAPI) UpdateProfessional(ctx context.Context, id int64, in model.ProfessionalInput) (model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return model.Professional{}, err
	}
	return model.Professional{ID: id, Name: in.Name, Bio: in.Bio}, nil
}

func (f *fakeAPI) UploadDocument(ctx context.Context, id int64, filename string, r io.Reader) (model.Professional, error) {
	if err := f.enter(ctx); err != nil {
		return model.Professional{}, err
	}
	_, _ = io.Copy(io.Discard, r)
	return model.Professional{ID: id, DocumentsURL: filename, VerificationStatus: model.VerificationPending}, nil
}

func (f *fakeAPI) DeleteProfessional(ctx context.Context, _ int64) error { return f.enter(ctx) }

func (f *fakeAPI) AdminCustomers(ctx context.Context, q api.AdminQuery) ([]model.Customer, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAdminQuery = q
	return append([]model.Customer(nil), f.customers...), nil
}

func (f *fakeAPI) GetCustomer(ctx context.Context, id int64) (model.Customer, error) {
	if err := f.enter(ctx); err != nil {
		return model.Customer{}, err
	}
	return model.Customer{ID: id}, nil
}

func (f *fakeAPI) SetCustomerStatus(ctx context.Context, id int64, status string) (model.Customer, error) {
	if err := f.enter(ctx); err != nil {
		return model.Customer{}, err
	}
	return model.Customer{ID: id, IsActive: status == api.AccountActive}, nil
}

func (f *fakeAPI) UpdateCustomer(ctx context.Context, id int64, in model.CustomerInput) (model.Customer, error) {
	if err := f.enter(ctx); err != nil {
		return model.Customer{}, err
	}
	return model.Customer{ID: id, Name: in.Name, Pincode: in.Pincode}, nil
}

func (f *fakeAPI) DeleteCustomer(ctx context.Context, _ int64) error { return f.enter(ctx) }

func (f *fakeAPI) Dashboard(ctx context.Context) (model.DashboardStats, error) {
	if err := f.enter(ctx); err != nil {
		return model.DashboardStats{}, err
	}
	return f.stats, nil
}

func (f *fakeAPI) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
