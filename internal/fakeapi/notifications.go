package fakeapi

import (
	"cmp"
	"net/http"
	"slices"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r)
	if !ok {
		return
	}
	var mine []*model.Notification
	unread := 0
	for _, n := range s.notifications {
		if n.UserID != a.user.ID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if unreadOnly && n.IsRead {
			continue
		}
		mine = append(mine, n)
	}
	slices.SortFunc(mine, func(x, y *model.Notification) int {
		if c := y.CreatedAt.Compare(x.CreatedAt.Time); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})
	if limit > 0 && len(mine) > limit {
		mine = mine[:limit]
	}
	out := make([]model.Notification, 0, len(mine))
	for _, n := range mine {
		out = append(out, *n)
	}
	writeJSON(w, http.StatusOK, msg{"notifications": out, "unread_count": unread})
}

// ownNotification returns the notification in the path if it belongs to the caller.
// Called with s.mu held.
func (s *Server) ownNotification(w http.ResponseWriter, r *http.Request, verb string) (*model.Notification, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	a, ok := s.callerAs(w, r)
	if !ok {
		return nil, false
	}
	n, ok := s.notifications[id]
	if !ok {
		fail(w, http.StatusNotFound, "Notification not found")
		return nil, false
	}
	if n.UserID != a.user.ID {
		fail(w, http.StatusForbidden, "Not authorized to "+verb+" this notification")
		return nil, false
	}
	return n, true
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ownNotification(w, r, "update")
	if !ok {
		return
	}
	n.IsRead = true
	writeJSON(w, http.StatusOK, msg{"message": "Notification marked as read", "notification": *n})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r)
	if !ok {
		return
	}
	marked := 0
	for _, n := range s.notifications {
		if n.UserID == a.user.ID && !n.IsRead {
			n.IsRead = true
			marked++
		}
	}
	writeJSON(w, http.StatusOK, msg{"message": "Marked " + strconv.Itoa(marked) + " notifications as read"})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ownNotification(w, r, "delete")
	if !ok {
		return
	}
	delete(s.notifications, n.ID)
	writeJSON(w, http.StatusOK, msg{"message": "Notification deleted successfully"})
}
