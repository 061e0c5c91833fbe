// Package fakeapi is an in-memory implementation of the marketplace REST API.
// It backs the end-to-end tests of the client and the hs-devserver command.
//
// All routes live under /api. Errors are JSON objects with a "message" field;
// token failures use "msg" the way the production backend does.
package fakeapi

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/homeservices/internal/crypto"
	"github.com/and161185/homeservices/internal/limiter"
	"github.com/and161185/homeservices/internal/model"
)

// Default seed account.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
)

// Options configures a Server.
type Options struct {
	SignKey    []byte        // HS256 key; random when empty
	AccessTTL  time.Duration // default 15m
	RefreshTTL time.Duration // default 30 days
	// RefreshDelay holds every /refresh call before it answers.
	RefreshDelay time.Duration
	// Hashing selects the Argon2id cost; zero means crypto.DefaultParams.
	Hashing pkgcrypto.Params

	AdminEmail    string
	AdminPassword string

	// Limiter locks out repeated failed logins; nil means an in-memory limiter with defaults.
	Limiter limiter.Limiter

	Logger *zap.Logger
}

// Server holds the marketplace state and serves it over HTTP.
type Server struct {
	log          *zap.Logger
	key          []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	refreshDelay time.Duration
	hashing      pkgcrypto.Params
	limiter      limiter.Limiter

	epoch atomic.Int64

	mu            sync.Mutex
	seq           map[string]int64
	accounts      map[int64]*account
	byEmail       map[string]int64
	customers     map[int64]*customer
	professionals map[int64]*professional
	services      map[int64]*model.Service
	requests      map[int64]*model.ServiceRequest
	reviews       map[int64]*model.Review
	notifications map[int64]*model.Notification
	rejections    map[int64]map[int64]bool // request id -> professional ids

	callsMu sync.Mutex
	calls   map[string]int
}

// New builds a Server seeded with one admin account.
func New(opts Options) (*Server, error) {
	key := opts.SignKey
	if len(key) == 0 {
		b, err := pkgcrypto.RandBytes(32)
		if err != nil {
			return nil, err
		}
		key = b
	}
	s := &Server{
		log:           opts.Logger,
		key:           key,
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		refreshDelay:  opts.RefreshDelay,
		hashing:       opts.Hashing,
		limiter:       opts.Limiter,
		seq:           map[string]int64{},
		accounts:      map[int64]*account{},
		byEmail:       map[string]int64{},
		customers:     map[int64]*customer{},
		professionals: map[int64]*professional{},
		services:      map[int64]*model.Service{},
		requests:      map[int64]*model.ServiceRequest{},
		reviews:       map[int64]*model.Review{},
		notifications: map[int64]*model.Notification{},
		rejections:    map[int64]map[int64]bool{},
		calls:         map[string]int{},
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 30 * 24 * time.Hour
	}
	if s.limiter == nil {
		s.limiter = limiter.NewMemory(limiter.Config{})
	}
	if s.hashing == (pkgcrypto.Params{}) {
		s.hashing = pkgcrypto.DefaultParams
	}

	email, pass := opts.AdminEmail, opts.AdminPassword
	if email == "" {
		email, pass = DefaultAdminEmail, DefaultAdminPassword
	}
	if pass == "" {
		return nil, errors.New("fakeapi: admin password is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.addAccount(model.User{Name: "Administrator", Email: email, Role: model.RoleAdmin, IsActive: true}, pass); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP surface wrapped in recovery, logging and call counting.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))
	r.Use(s.count)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/refresh", s.refresh)

		r.Get("/services", s.listServices)
		r.Get("/services/{id}", s.getService)
		r.Get("/professionals", s.listProfessionals)
		r.Get("/professionals/{id}", s.getProfessional)

		r.Group(func(r chi.Router) {
			r.Use(s.authed)

			r.Post("/logout", s.logout)

			r.Post("/services", s.createService)
			r.Put("/services/{id}", s.updateService)
			r.Delete("/services/{id}", s.deleteService)

			r.Route("/service-requests", func(r chi.Router) {
				r.Get("/", s.listRequests)
				r.Post("/", s.createRequest)
				r.Get("/{id}", s.getRequest)
				r.Put("/{id}", s.updateRequest)
				r.Delete("/{id}", s.cancelRequest)
				r.Post("/{id}/action", s.requestAction)
			})

			r.Get("/reviews", s.listReviews)
			r.Post("/reviews", s.submitReview)
			r.Put("/reviews/{id}", s.updateReview)

			r.Get("/notifications", s.listNotifications)
			r.Put("/notifications", s.markAllRead)
			r.Put("/notifications/{id}", s.markRead)
			r.Delete("/notifications/{id}", s.deleteNotification)

			r.Put("/professionals/{id}", s.updateProfessional)
			r.Delete("/professionals/{id}", s.deleteProfessional)
			r.Post("/professionals/{id}/verify", s.verifyProfessional)
			r.Put("/professionals/{id}/verify", s.uploadDocument)

			r.Get("/customers/{id}", s.getCustomer)
			r.Put("/customers/{id}", s.updateCustomer)
			r.Delete("/customers/{id}", s.deleteCustomer)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", s.dashboard)
				r.Get("/professionals", s.adminProfessionals)
				r.Put("/professionals", s.setProfessionalStatus)
				r.Get("/customers", s.adminCustomers)
				r.Put("/customers", s.setCustomerStatus)
			})
		})
	})

	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.callsMu.Lock()
		s.calls[r.URL.Path]++
		s.callsMu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Calls reports how many requests reached path (for example "/api/refresh").
func (s *Server) Calls(path string) int {
	s.callsMu.Lock()
	defer s.callsMu.Unlock()
	return s.calls[path]
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.epoch.Add(1)
}

// SeedService adds an active catalog entry.
func (s *Server) SeedService(name string, price float64, minutes int) model.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addService(model.Service{Name: name, BasePrice: price, EstimatedTime: minutes, IsActive: true})
}

// Notify queues a notification for the account userID.
func (s *Server) Notify(userID int64, typ, message string) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.notify(userID, typ, message)
}

// Account returns the account registered under email.
func (s *Server) Account(email string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return model.User{}, false
	}
	return s.userView(s.accounts[id]), true
}
