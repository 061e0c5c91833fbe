package app

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeservices/internal/auth"
	"github.com/and161185/homeservices/internal/config"
	pkgcrypto "github.com/and161185/homeservices/internal/crypto"
	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/fakeapi"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/router"
)

func backend(t *testing.T, opts fakeapi.Options) (*fakeapi.Server, config.Config) {
	t.Helper()
	opts.Hashing = pkgcrypto.FastParams
	opts.Logger = zaptest.NewLogger(t)
	fs, err := fakeapi.New(opts)
	require.NoError(t, err)
	srv := httptest.NewServer(fs.Handler())
	t.Cleanup(srv.Close)

	return fs, config.Config{
		APIBaseURL:  srv.URL + "/api",
		HTTPTimeout: 5 * time.Second,
		Log:         config.LogConfig{Level: "debug"},
		Session:     config.SessionConfig{Backend: config.BackendMemory},
	}
}

func start(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func adminLogin(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.Auth.Login(context.Background(), model.Credentials{
		Email:    fakeapi.DefaultAdminEmail,
		Password: fakeapi.DefaultAdminPassword,
	}))
}

func TestLoginLandsOnRoleHome(t *testing.T) {
	t.Parallel()
	fs, cfg := backend(t, fakeapi.Options{})
	sv := fs.SeedService("Plumbing", 500, 60)
	ctx := context.Background()

	admin := start(t, cfg)
	assert.Equal(t, auth.StateAnonymous, admin.Auth.State())
	adminLogin(t, admin)
	assert.Equal(t, auth.StateAuthenticated, admin.Auth.State())
	assert.Equal(t, router.AdminDashboard, admin.Router.Current().Name)

	cust := start(t, cfg)
	require.NoError(t, cust.Auth.Register(ctx, model.Registration{
		Email: "c@x.com", Password: "secret1", Name: "Cust", Role: model.RoleCustomer,
	}))
	assert.Equal(t, router.CustomerDashboard, cust.Router.Current().Name)

	pro := start(t, cfg)
	require.NoError(t, pro.Auth.Register(ctx, model.Registration{
		Email: "p@x.com", Password: "secret1", Name: "Pro", Role: model.RoleProfessional, ServiceID: sv.ID,
	}))
	assert.Equal(t, router.ProfessionalDashboard, pro.Router.Current().Name)

	// a customer cannot enter the admin area
	r, err := cust.Router.Navigate(ctx, router.AdminDashboard)
	require.NoError(t, err)
	assert.Equal(t, router.Home, r.Name)

	// guest-only views send a signed-in user to the role home
	r, err = cust.Router.Navigate(ctx, router.Register)
	require.NoError(t, err)
	assert.Equal(t, router.CustomerDashboard, r.Name)

	bad := start(t, cfg)
	require.Error(t, bad.Auth.Login(ctx, model.Credentials{Email: "c@x.com", Password: "wrong!"}))
	assert.Equal(t, "Invalid credentials", bad.Auth.LastError())
	assert.Equal(t, auth.StateAnonymous, bad.Auth.State())
}

func TestConcurrentRefreshSendsOneCall(t *testing.T) {
	t.Parallel()
	fs, cfg := backend(t, fakeapi.Options{RefreshDelay: 50 * time.Millisecond})
	a := start(t, cfg)
	adminLogin(t, a)
	before, _ := a.Session.Get(context.Background())

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := a.Auth.Refresh(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fs.Calls("/api/refresh"))
	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}
	after, _ := a.Session.Get(context.Background())
	assert.Equal(t, tokens[0], after.AccessToken)
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.Equal(t, before.RefreshToken, after.RefreshToken)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.RefreshCalls))
}

func TestUnauthorizedTearsDownEverything(t *testing.T) {
	t.Parallel()
	fs, cfg := backend(t, fakeapi.Options{})
	fs.SeedService("Cleaning", 300, 90)
	ctx := context.Background()

	a := start(t, cfg)
	adminLogin(t, a)
	_, err := a.Services.FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, a.Services.Len())
	_, err = a.Dashboard.Fetch(ctx)
	require.NoError(t, err)

	fs.RevokeTokens()
	_, err = a.Requests.FetchAll(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	s, err := a.Session.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, auth.StateAnonymous, a.Auth.State())
	assert.Equal(t, router.Login, a.Router.Current().Name)
	assert.Zero(t, a.Services.Len(), "caches reset on teardown")
	assert.Zero(t, a.Dashboard.PendingVerifications())
	assert.Empty(t, a.Requests.Error())

	r, err := a.Router.Navigate(ctx, router.AdminDashboard)
	require.NoError(t, err)
	assert.Equal(t, router.Login, r.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.SessionTeardowns.WithLabelValues("unauthorized")))
}

func TestLogout(t *testing.T) {
	t.Parallel()
	fs, cfg := backend(t, fakeapi.Options{})
	a := start(t, cfg)
	adminLogin(t, a)

	require.NoError(t, a.Auth.Logout(context.Background()))
	assert.Equal(t, 1, fs.Calls("/api/logout"))
	assert.Equal(t, auth.StateAnonymous, a.Auth.State())
	assert.Equal(t, router.Login, a.Router.Current().Name)
}

func TestFileSessionSurvivesRestart(t *testing.T) {
	t.Parallel()
	_, cfg := backend(t, fakeapi.Options{})
	cfg.Session = config.SessionConfig{Backend: config.BackendFile, Dir: t.TempDir(), Passphrase: "pass-phrase"}

	first := start(t, cfg)
	adminLogin(t, first)
	require.NoError(t, first.Close())

	second := start(t, cfg)
	assert.Equal(t, auth.StateAuthenticated, second.Auth.State())
	assert.True(t, second.Auth.IsAdmin())
	_, err := second.Dashboard.Fetch(context.Background())
	require.NoError(t, err)
}

func TestRedisSession(t *testing.T) {
	t.Parallel()
	_, cfg := backend(t, fakeapi.Options{})
	mr := miniredis.RunT(t)
	cfg.Session = config.SessionConfig{
		Backend: config.BackendRedis,
		Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "hs:test"},
	}

	a := start(t, cfg)
	adminLogin(t, a)
	assert.True(t, mr.Exists("hs:test:access_token"))

	again := start(t, cfg)
	assert.Equal(t, auth.StateAuthenticated, again.Auth.State())

	require.NoError(t, again.Auth.Logout(context.Background()))
	assert.False(t, mr.Exists("hs:test:access_token"))
}

func TestNew_BadBackend(t *testing.T) {
	t.Parallel()
	_, cfg := backend(t, fakeapi.Options{})

	cfg.Session.Backend = "sqlite"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)

	cfg.Session = config.SessionConfig{Backend: config.BackendRedis, Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
}
