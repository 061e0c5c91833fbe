package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/homeservices/internal/model"
)

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	weekAgo := time.Now().AddDate(0, 0, -7)
	var st model.DashboardStats
	st.RequestStatus = map[string]int{}

	st.TotalCounts.Customers = len(s.customers)
	st.TotalCounts.Professionals = len(s.professionals)
	st.TotalCounts.Services = len(s.services)
	st.TotalCounts.ServiceRequests = len(s.requests)
	st.ActiveCounts.Services = len(s.services)

	for _, c := range s.customers {
		if s.accounts[c.userID].user.IsActive {
			st.ActiveCounts.Customers++
		}
		if c.created.After(weekAgo) {
			st.RecentActivity.NewCustomers++
		}
	}
	for _, p := range s.professionals {
		switch p.verification {
		case model.VerificationApproved:
			st.ActiveCounts.Professionals++
		case model.VerificationPending:
			st.PendingVerifications++
		}
		if p.created.After(weekAgo) {
			st.RecentActivity.NewProfessionals++
		}
	}
	for _, sr := range s.requests {
		st.RequestStatus[sr.Status]++
		if sr.RequestDate.After(weekAgo) {
			st.RecentActivity.NewRequests++
		}
	}
	writeJSON(w, http.StatusOK, st)
}

// statusFilter maps ?status=active|inactive to a predicate on the account flag.
func statusFilter(v string) func(bool) bool {
	if v == "" {
		return func(bool) bool { return true }
	}
	want := strings.EqualFold(v, "active")
	return func(active bool) bool { return active == want }
}

func (s *Server) adminProfessionals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := statusFilter(q.Get("status"))
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	verification := q.Get("verification_status")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	out := []model.Professional{}
	for _, p := range sortedByID(s.professionals) {
		v := s.professionalView(p)
		switch {
		case !status(v.IsActive):
		case serviceID > 0 && v.ServiceID != serviceID:
		case verification != "" && v.VerificationStatus != verification:
		default:
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, msg{"professionals": out})
}

type statusChange struct {
	ProfessionalID int64  `json:"professional_id"`
	CustomerID     int64  `json:"customer_id"`
	Status         string `json:"status"`
}

func (c statusChange) active(w http.ResponseWriter) (bool, bool) {
	switch c.Status {
	case "active":
		return true, true
	case "inactive":
		return false, true
	}
	fail(w, http.StatusBadRequest, "Status must be 'active' or 'inactive'")
	return false, false
}

func (s *Server) setProfessionalStatus(w http.ResponseWriter, r *http.Request) {
	var in statusChange
	if !decode(w, r, &in) {
		return
	}
	active, ok := in.active(w)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	p, ok := s.professionals[in.ProfessionalID]
	if !ok {
		fail(w, http.StatusNotFound, "Professional not found")
		return
	}
	s.accounts[p.userID].user.IsActive = active
	writeJSON(w, http.StatusOK, msg{"message": "Professional status updated", "professional": s.professionalView(p)})
}

func (s *Server) adminCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := statusFilter(q.Get("status"))
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	out := []model.Customer{}
	for _, c := range sortedByID(s.customers) {
		v := s.customerView(c)
		if !status(v.IsActive) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Name), search) &&
			!strings.Contains(strings.ToLower(v.Email), search) &&
			!strings.Contains(v.Pincode, search) {
			continue
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, msg{"customers": out})
}

func (s *Server) setCustomerStatus(w http.ResponseWriter, r *http.Request) {
	var in statusChange
	if !decode(w, r, &in) {
		return
	}
	active, ok := in.active(w)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	c, ok := s.customers[in.CustomerID]
	if !ok {
		fail(w, http.StatusNotFound, "Customer not found")
		return
	}
	s.accounts[c.userID].user.IsActive = active
	writeJSON(w, http.StatusOK, msg{"message": "Customer status updated", "customer": s.customerView(c)})
}
