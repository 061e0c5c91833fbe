// Package app wires the client together from a Config: session storage,
// API client, router, auth manager and the domain caches.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/api"
	"github.com/and161185/homeservices/internal/auth"
	"github.com/and161185/homeservices/internal/config"
	"github.com/and161185/homeservices/internal/metrics"
	"github.com/and161185/homeservices/internal/router"
	"github.com/and161185/homeservices/internal/session"
	"github.com/and161185/homeservices/internal/store"
)

// App is one running client.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Session session.Store
	Client  *api.Client
	Router  *router.Router
	Auth    *auth.Manager

	Services      *store.ServiceCache
	Requests      *store.RequestCache
	Notifications *store.NotificationCache
	Dashboard     *store.DashboardCache
	Professionals *store.ProfessionalCache
	Customers     *store.CustomerCache

	closers     []func() error
	unsubscribe func()
}

// New builds an App and restores any session kept by the configured backend.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Log: log, Registry: prometheus.NewRegistry()}
	a.Metrics = metrics.New(a.Registry)

	st, closer, err := openSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Session = st
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.Client, err = api.New(st, api.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.HTTPTimeout,
		CACert:   cfg.CACert,
		Insecure: cfg.Insecure,
		Tracing:  cfg.Tracing,
		Logger:   log.Named("api"),
		Metrics:  a.Metrics,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Router = router.New(st, log.Named("router"))
	a.Auth = auth.NewManager(a.Client, st, auth.Options{
		Navigator: a.Router,
		Logger:    log.Named("auth"),
		Metrics:   a.Metrics,
	})
	a.Client.SetUnauthorizedHandler(a.Auth)

	cl := log.Named("store")
	a.Services = store.NewServiceCache(a.Client, cl)
	a.Requests = store.NewRequestCache(a.Client, cl)
	a.Notifications = store.NewNotificationCache(a.Client, cl)
	a.Dashboard = store.NewDashboardCache(a.Client, cl)
	a.Professionals = store.NewProfessionalCache(a.Client, a.Dashboard, cl)
	a.Customers = store.NewCustomerCache(a.Client, cl)

	a.unsubscribe = a.Auth.Subscribe(func(s auth.State) {
		if s == auth.StateAnonymous {
			a.ResetCaches()
		}
	})

	if a.Auth.CheckSession(ctx) {
		id, _ := a.Auth.WhoAmI()
		log.Debug("session restored", zap.Int64("user_id", id.ID), zap.String("role", string(id.Role)))
	}
	return a, nil
}

func openSession(ctx context.Context, cfg config.Config) (session.Store, func() error, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil, nil
	case config.BackendRedis:
		client, err := session.Connect(ctx, session.RedisConfig{
			Addr:   cfg.Session.Redis.Addr,
			DB:     cfg.Session.Redis.DB,
			Prefix: cfg.Session.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		return session.NewRedisStore(client, cfg.Session.Redis.Prefix), client.Close, nil
	case config.BackendFile, "":
		return session.NewFileStore(cfg.SessionDir(), cfg.Session.Passphrase), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

// ResetCaches drops every cached entity, filter and error.
func (a *App) ResetCaches() {
	a.Services.Reset()
	a.Requests.Reset()
	a.Notifications.Reset()
	a.Dashboard.Reset()
	a.Professionals.Reset()
	a.Customers.Reset()
}

// Close releases the session backend.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	var errList []error
	for _, c := range a.closers {
		errList = append(errList, c())
	}
	a.closers = nil
	return errors.Join(errList...)
}
