package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/session"
)

const maxRedirects = 4

// Router tracks the current view and applies Guard on every navigation.
type Router struct {
	store session.Store
	log   *zap.Logger

	mu      sync.RWMutex
	current Route
	history []string
}

// New returns a Router positioned at home.
func New(store session.Store, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	home, _ := Lookup(Home)
	return &Router{store: store, log: log, current: home}
}

// Navigate moves to the named route, following guard redirects. Unknown names resolve to home.
// It returns the route actually entered.
func (r *Router) Navigate(ctx context.Context, name string) (Route, error) {
	s, err := r.store.Get(ctx)
	if err != nil {
		return Route{}, fmt.Errorf("read session: %w", err)
	}

	dest, ok := Lookup(name)
	if !ok {
		dest, _ = Lookup(Home)
	}
	for i := 0; ; i++ {
		d := Guard(dest, s)
		if d.Outcome == Allow {
			break
		}
		if i == maxRedirects {
			return Route{}, fmt.Errorf("redirect loop at %q", dest.Name)
		}
		r.log.Debug("route redirect",
			zap.String("from", dest.Name),
			zap.String("to", d.Target),
			zap.Stringer("outcome", d.Outcome),
		)
		dest, _ = Lookup(d.Target)
	}

	r.mu.Lock()
	r.current = dest
	r.history = append(r.history, dest.Name)
	r.mu.Unlock()
	return dest, nil
}

// Current returns the route last entered.
func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History lists entered route names, oldest first.
func (r *Router) History() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history...)
}
