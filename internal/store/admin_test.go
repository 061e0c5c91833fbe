package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/model"
)

func seededAdmin(t *testing.T) (*ProfessionalCache, *CustomerCache, *DashboardCache, *fakeAPI) {
	t.Helper()
	log := zaptest.NewLogger(t)
	f := &fakeAPI{
		professionals: []model.Professional{
			{ID: 1, Name: "Meera", Email: "m@x.in", ServiceID: 1, ServiceName: "Plumbing", VerificationStatus: model.VerificationPending, IsActive: true},
			{ID: 2, Name: "Arjun", Email: "a@x.in", ServiceID: 2, ServiceName: "Cleaning", VerificationStatus: model.VerificationApproved, IsActive: false},
			{ID: 3, Name: "Kiran", Email: "k@x.in", ServiceID: 1, ServiceName: "Plumbing", VerificationStatus: model.VerificationApproved, IsActive: true},
		},
		customers: []model.Customer{
			{ID: 1, Name: "Asha", Email: "asha@x.in", Pincode: "560001", IsActive: true},
			{ID: 2, Name: "Ravi", Email: "ravi@x.in", Pincode: "110001", IsActive: false},
		},
		stats: model.DashboardStats{PendingVerifications: 1},
	}
	d := NewDashboardCache(f, log)
	p := NewProfessionalCache(f, d, log)
	c := NewCustomerCache(f, log)
	ctx := context.Background()
	_, err := p.FetchAll(ctx)
	require.NoError(t, err)
	_, err = c.FetchAll(ctx)
	require.NoError(t, err)
	return p, c, d, f
}

func professionalIDs(ps []model.Professional) []int64 {
	return ids(ps, func(p model.Professional) int64 { return p.ID })
}

func customerIDs(cs []model.Customer) []int64 {
	return ids(cs, func(c model.Customer) int64 { return c.ID })
}

func TestProfessionalCache_Filters(t *testing.T) {
	t.Parallel()
	p, _, _, f := seededAdmin(t)

	p.SetFilters(ProfessionalFilterPatch{Status: Ptr(api.AccountActive)})
	require.Equal(t, []int64{1, 3}, professionalIDs(p.Filtered()))
	p.SetFilters(ProfessionalFilterPatch{VerificationStatus: Ptr(model.VerificationApproved)})
	require.Equal(t, []int64{3}, professionalIDs(p.Filtered()))
	p.SetFilters(ProfessionalFilterPatch{Status: Ptr(""), ServiceID: Ptr(int64(2))})
	require.Equal(t, []int64{2}, professionalIDs(p.Filtered()))

	_, err := p.FetchAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, api.AdminQuery{ServiceID: 2, VerificationStatus: model.VerificationApproved}, f.lastAdminQuery)

	p.ClearFilters()
	p.SetFilters(ProfessionalFilterPatch{Search: Ptr("plumb")})
	require.Equal(t, []int64{1, 3}, professionalIDs(p.Filtered()))
}

func TestProfessionalCache_VerifyDecrementsDashboard(t *testing.T) {
	t.Parallel()
	p, _, d, _ := seededAdmin(t)
	ctx := context.Background()

	// before the dashboard is loaded there is nothing to decrement
	_, err := p.Verify(ctx, 2, "approve", "")
	require.NoError(t, err)
	require.Zero(t, d.PendingVerifications())

	_, err = d.Fetch(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, d.PendingVerifications())

	got, err := p.Verify(ctx, 1, "approve", "")
	require.NoError(t, err)
	require.Equal(t, model.VerificationApproved, got.VerificationStatus)
	cached, _ := p.ByID(1)
	require.Equal(t, model.VerificationApproved, cached.VerificationStatus)
	require.Equal(t, 0, d.PendingVerifications())

	_, err = p.Verify(ctx, 3, "reject", "blurry scan")
	require.NoError(t, err)
	require.Equal(t, 0, d.PendingVerifications(), "never below zero")

	_, err = p.Verify(ctx, 3, "maybe", "")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestProfessionalCache_StatusUpdateRemove(t *testing.T) {
	t.Parallel()
	p, _, _, f := seededAdmin(t)
	ctx := context.Background()

	got, err := p.UpdateStatus(ctx, 2, api.AccountActive)
	require.NoError(t, err)
	require.True(t, got.IsActive)
	cached, _ := p.ByID(2)
	require.True(t, cached.IsActive)

	_, err = p.FetchOne(ctx, 3)
	require.NoError(t, err)
	_, err = p.Update(ctx, 3, model.ProfessionalInput{Name: "Kiran K", Bio: "10 years"})
	require.NoError(t, err)
	cur, _ := p.Current()
	require.Equal(t, "Kiran K", cur.Name)

	_, err = p.Update(ctx, 3, model.ProfessionalInput{Phone: "12"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, "phone must have 10 digits", p.Error())

	doc, err := p.UploadDocument(ctx, 3, "id.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.Equal(t, model.VerificationPending, doc.VerificationStatus)

	_, err = p.Remove(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, professionalIDs(p.Items()))
	_, has := p.Current()
	require.False(t, has)

	f.fail(errs.NewStatusError(403, "Admin access required"))
	_, err = p.UpdateStatus(ctx, 1, api.AccountInactive)
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Equal(t, "Admin access required", p.Error())
	cached, _ = p.ByID(1)
	require.True(t, cached.IsActive)
}

func TestCustomerCache(t *testing.T) {
	t.Parallel()
	_, c, _, f := seededAdmin(t)
	ctx := context.Background()

	c.SetFilters(CustomerFilterPatch{Search: Ptr("1100")})
	require.Equal(t, []int64{2}, customerIDs(c.Filtered()), "pincode is searched")
	c.SetFilters(CustomerFilterPatch{Search: Ptr("ASHA@")})
	require.Equal(t, []int64{1}, customerIDs(c.Filtered()))
	c.SetFilters(CustomerFilterPatch{Search: Ptr(""), Status: Ptr(api.AccountInactive)})
	require.Equal(t, []int64{2}, customerIDs(c.Filtered()))

	_, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, api.AdminQuery{Status: api.AccountInactive}, f.lastAdminQuery)

	got, err := c.UpdateStatus(ctx, 2, api.AccountActive)
	require.NoError(t, err)
	require.True(t, got.IsActive)
	require.Empty(t, c.Filtered(), "filters re-evaluate on read")

	_, err = c.FetchOne(ctx, 1)
	require.NoError(t, err)
	_, err = c.Update(ctx, 1, model.CustomerInput{Name: "Asha R", Pincode: "560002"})
	require.NoError(t, err)
	cur, _ := c.Current()
	require.Equal(t, "560002", cur.Pincode)

	_, err = c.Update(ctx, 1, model.CustomerInput{Pincode: "56"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, "pincode must have 6 digits", c.Error())

	ok, err := c.Remove(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int64{2}, customerIDs(c.Items()))
}

func TestDashboardCache_Failure(t *testing.T) {
	t.Parallel()
	_, _, d, f := seededAdmin(t)
	f.fail(errs.NewStatusError(500, ""))

	_, err := d.Fetch(context.Background())
	require.Error(t, err)
	require.Equal(t, "Failed to fetch dashboard statistics", d.Error())
	_, ok := d.Current()
	require.False(t, ok)
}
