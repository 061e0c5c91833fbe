package fakeapi

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/and161185/homeservices/internal/model"
)

const dateHelp = "Use ISO format (YYYY-MM-DDTHH:MM:SS)"

func now() model.Time { return model.Time{Time: time.Now().UTC()} }

func (s *Server) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from, to model.Time
	for _, d := range []struct {
		key string
		dst *model.Time
	}{{"date_from", &from}, {"date_to", &to}} {
		v := q.Get(d.key)
		if v == "" {
			continue
		}
		t, err := model.ParseTime(v)
		if err != nil {
			fail(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format. %s", d.key, dateHelp))
			return
		}
		*d.dst = t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r)
	if !ok {
		return
	}

	var keep func(*model.ServiceRequest) bool
	switch a.user.Role {
	case model.RoleCustomer:
		c := s.customerByUser(a.user.ID)
		if c == nil {
			fail(w, http.StatusNotFound, "Customer profile not found")
			return
		}
		keep = func(sr *model.ServiceRequest) bool { return sr.CustomerID == c.id }
	case model.RoleProfessional:
		p := s.professionalByUser(a.user.ID)
		if p == nil {
			fail(w, http.StatusNotFound, "Professional profile not found")
			return
		}
		if q.Get("available") == "true" {
			keep = func(sr *model.ServiceRequest) bool {
				return sr.Status == model.StatusRequested && sr.ServiceID == p.serviceID && !s.rejections[sr.ID][p.id]
			}
		} else {
			keep = func(sr *model.ServiceRequest) bool { return sr.ProfessionalID != nil && *sr.ProfessionalID == p.id }
		}
	default:
		keep = func(*model.ServiceRequest) bool { return true }
	}

	status := q.Get("status")
	var found []*model.ServiceRequest
	for _, sr := range s.requests {
		switch {
		case !keep(sr):
		case status != "" && sr.Status != status:
		case !from.IsZero() && sr.RequestDate.Before(from.Time):
		case !to.IsZero() && sr.RequestDate.After(to.Time):
		default:
			found = append(found, sr)
		}
	}
	slices.SortFunc(found, newestFirst)

	out := make([]model.ServiceRequest, 0, len(found))
	for _, sr := range found {
		out = append(out, s.requestView(sr))
	}
	writeJSON(w, http.StatusOK, msg{"service_requests": out, "count": len(out)})
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r)
	if !ok {
		return
	}
	sr, ok := s.requests[id]
	if !ok {
		fail(w, http.StatusNotFound, "Service request not found")
		return
	}
	allowed := a.user.Role == model.RoleAdmin
	switch a.user.Role {
	case model.RoleCustomer:
		c := s.customerByUser(a.user.ID)
		allowed = c != nil && sr.CustomerID == c.id
	case model.RoleProfessional:
		p := s.professionalByUser(a.user.ID)
		allowed = p != nil && ((sr.ProfessionalID != nil && *sr.ProfessionalID == p.id) ||
			(sr.Status == model.StatusRequested && sr.ServiceID == p.serviceID))
	}
	if !allowed {
		fail(w, http.StatusForbidden, "Not authorized to view this service request")
		return
	}
	writeJSON(w, http.StatusOK, msg{"service_request": s.requestView(sr)})
}

// futureDate parses a scheduled date that must lie ahead of now.
func futureDate(w http.ResponseWriter, v string) (model.Time, bool) {
	t, err := model.ParseTime(v)
	if err != nil {
		fail(w, http.StatusBadRequest, "Invalid date format. "+dateHelp)
		return model.Time{}, false
	}
	if !t.After(time.Now()) {
		fail(w, http.StatusBadRequest, "Scheduled date must be in the future")
		return model.Time{}, false
	}
	return t, true
}

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	var in model.RequestInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r, model.RoleCustomer)
	if !ok {
		return
	}
	c := s.customerByUser(a.user.ID)
	if c == nil {
		fail(w, http.StatusNotFound, "Customer profile not found")
		return
	}
	sv, ok := s.services[in.ServiceID]
	if !ok {
		fail(w, http.StatusNotFound, "Service not found")
		return
	}
	if !sv.IsActive {
		fail(w, http.StatusBadRequest, "This service is not currently active")
		return
	}
	when, ok := futureDate(w, in.ScheduledDate)
	if !ok {
		return
	}

	sr := &model.ServiceRequest{
		ID:            s.next("request"),
		CustomerID:    c.id,
		ServiceID:     sv.ID,
		RequestDate:   now(),
		ScheduledDate: when,
		Status:        model.StatusRequested,
		Remarks:       in.Remarks,
		LastUpdated:   now(),
	}
	s.requests[sr.ID] = sr
	for _, p := range sortedByID(s.professionals) {
		if p.serviceID == sv.ID && p.verification == model.VerificationApproved {
			s.notify(p.userID, "new_request", "A new service request is available in your area.")
		}
	}
	writeJSON(w, http.StatusCreated, msg{"message": "Service request created successfully", "service_request": s.requestView(sr)})
}

// ownRequest returns the request id in the path if the caller is the customer who booked it.
// Called with s.mu held.
func (s *Server) ownRequest(w http.ResponseWriter, r *http.Request, verb string) (*model.ServiceRequest, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	a, ok := s.callerAs(w, r, model.RoleCustomer)
	if !ok {
		return nil, false
	}
	sr, ok := s.requests[id]
	if !ok {
		fail(w, http.StatusNotFound, "Service request not found")
		return nil, false
	}
	c := s.customerByUser(a.user.ID)
	if c == nil || sr.CustomerID != c.id {
		fail(w, http.StatusForbidden, "Not authorized to "+verb+" this service request")
		return nil, false
	}
	return sr, true
}

func (s *Server) updateRequest(w http.ResponseWriter, r *http.Request) {
	var in model.RequestInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.ownRequest(w, r, "update")
	if !ok {
		return
	}
	switch sr.Status {
	case model.StatusClosed, model.StatusCancelled:
		fail(w, http.StatusBadRequest, "Cannot update a closed or cancelled service request")
		return
	case model.StatusAssigned:
		fail(w, http.StatusBadRequest, "Cannot update an assigned service request")
		return
	}
	if in.ScheduledDate != "" {
		when, ok := futureDate(w, in.ScheduledDate)
		if !ok {
			return
		}
		sr.ScheduledDate = when
	}
	if in.Remarks != "" {
		sr.Remarks = in.Remarks
	}
	sr.LastUpdated = now()
	writeJSON(w, http.StatusOK, msg{"message": "Service request updated successfully", "service_request": s.requestView(sr)})
}

func (s *Server) cancelRequest(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.ownRequest(w, r, "cancel")
	if !ok {
		return
	}
	if sr.ProfessionalID != nil {
		fail(w, http.StatusBadRequest, "Cannot cancel a service request with an assigned professional")
		return
	}
	if sr.Status == model.StatusClosed || sr.Status == model.StatusCancelled {
		fail(w, http.StatusBadRequest, "Cannot cancel a closed or already cancelled service request")
		return
	}
	sr.Status = model.StatusCancelled
	sr.LastUpdated = now()
	writeJSON(w, http.StatusOK, msg{"message": "Service request cancelled successfully"})
}

func (s *Server) requestAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.RequestAction
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r, model.RoleProfessional, model.RoleCustomer)
	if !ok {
		return
	}
	sr, ok := s.requests[id]
	if !ok {
		fail(w, http.StatusNotFound, "Service request not found")
		return
	}

	var (
		status  int
		message string
	)
	if a.user.Role == model.RoleProfessional {
		p := s.professionalByUser(a.user.ID)
		if p == nil {
			fail(w, http.StatusNotFound, "Professional profile not found")
			return
		}
		switch in.Action {
		case "accept":
			status, message = s.accept(sr, p)
		case "reject":
			status, message = s.reject(sr, p)
		case "start":
			status, message = s.start(sr, p)
		case "complete":
			status, message = s.complete(sr, p)
		default:
			status, message = http.StatusBadRequest, "Invalid action for professional"
		}
	} else {
		c := s.customerByUser(a.user.ID)
		switch {
		case c == nil || sr.CustomerID != c.id:
			status, message = http.StatusForbidden, "Not authorized to take action on this service request"
		case in.Action == "close":
			status, message = s.close(sr)
		default:
			status, message = http.StatusBadRequest, "Invalid action for customer"
		}
	}

	if status != http.StatusOK {
		fail(w, status, message)
		return
	}
	writeJSON(w, http.StatusOK, msg{"message": message, "service_request": s.requestView(sr)})
}

func (s *Server) accept(sr *model.ServiceRequest, p *professional) (int, string) {
	switch {
	case sr.Status != model.StatusRequested:
		return http.StatusBadRequest, "This service request is no longer available"
	case sr.ServiceID != p.serviceID:
		return http.StatusBadRequest, "This service request does not match your service type"
	case p.verification != model.VerificationApproved:
		return http.StatusForbidden, "You must be verified to accept service requests"
	case s.rejections[sr.ID][p.id]:
		return http.StatusBadRequest, "You cannot accept a request you have previously rejected"
	}
	pid := p.id
	sr.ProfessionalID = &pid
	sr.Status = model.StatusAssigned
	sr.LastUpdated = now()
	if c, ok := s.customers[sr.CustomerID]; ok {
		s.notify(c.userID, "request_accepted", "Your service request has been accepted by "+s.accounts[p.userID].user.Name+".")
	}
	return http.StatusOK, "Service request accepted successfully"
}

func (s *Server) reject(sr *model.ServiceRequest, p *professional) (int, string) {
	if sr.ServiceID != p.serviceID {
		return http.StatusBadRequest, "This service request does not match your service type"
	}
	if s.rejections[sr.ID][p.id] {
		return http.StatusBadRequest, "You have already rejected this service request"
	}
	if s.rejections[sr.ID] == nil {
		s.rejections[sr.ID] = map[int64]bool{}
	}
	s.rejections[sr.ID][p.id] = true
	if sr.ProfessionalID != nil && *sr.ProfessionalID == p.id {
		sr.ProfessionalID = nil
		sr.Status = model.StatusRequested
	}
	sr.LastUpdated = now()

	total, rejected := 0, 0
	for _, other := range s.professionals {
		if other.serviceID == sr.ServiceID && other.verification == model.VerificationApproved {
			total++
			if s.rejections[sr.ID][other.id] {
				rejected++
			}
		}
	}
	if total > 0 && rejected >= total && sr.Status == model.StatusRequested {
		sr.Status = model.StatusCancelled
		if c, ok := s.customers[sr.CustomerID]; ok {
			s.notify(c.userID, "request_cancelled",
				"Your service request has been cancelled as all available professionals have rejected it.")
		}
		return http.StatusOK, "Service request rejected and cancelled as all professionals have rejected it"
	}
	return http.StatusOK, "Service request rejected successfully"
}

func assignedTo(sr *model.ServiceRequest, p *professional) bool {
	return sr.ProfessionalID != nil && *sr.ProfessionalID == p.id
}

func (s *Server) start(sr *model.ServiceRequest, p *professional) (int, string) {
	if !assignedTo(sr, p) {
		return http.StatusForbidden, "You are not assigned to this service request"
	}
	if sr.Status != model.StatusAssigned {
		return http.StatusBadRequest, "This service request cannot be started. Invalid status."
	}
	sr.Status = model.StatusInProgress
	sr.LastUpdated = now()
	return http.StatusOK, "Service request started"
}

func (s *Server) complete(sr *model.ServiceRequest, p *professional) (int, string) {
	if !assignedTo(sr, p) {
		return http.StatusForbidden, "You are not assigned to this service request"
	}
	if sr.Status != model.StatusAssigned && sr.Status != model.StatusInProgress {
		return http.StatusBadRequest, "This service request cannot be completed. Invalid status."
	}
	sr.Status = model.StatusCompleted
	sr.CompletionDate = now()
	sr.LastUpdated = now()
	if c, ok := s.customers[sr.CustomerID]; ok {
		s.notify(c.userID, "request_completed", "Your service request has been marked as completed. Please leave a review.")
	}
	return http.StatusOK, "Service request marked as completed"
}

func (s *Server) close(sr *model.ServiceRequest) (int, string) {
	if sr.Status != model.StatusCompleted {
		return http.StatusBadRequest, "Only completed service requests can be closed"
	}
	sr.Status = model.StatusClosed
	sr.LastUpdated = now()
	return http.StatusOK, "Service request closed successfully"
}
