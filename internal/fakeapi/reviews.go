package fakeapi

import (
	"net/http"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reqID, _ := strconv.ParseInt(q.Get("service_request_id"), 10, 64)
	proID, _ := strconv.ParseInt(q.Get("professional_id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Review{}
	for _, rv := range sortedByID(s.reviews) {
		if reqID > 0 && rv.ServiceRequestID != reqID {
			continue
		}
		if proID > 0 && rv.ProfessionalID != proID {
			continue
		}
		out = append(out, *rv)
	}
	writeJSON(w, http.StatusOK, msg{"reviews": out})
}

func (s *Server) submitReview(w http.ResponseWriter, r *http.Request) {
	var in model.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	if in.Rating < 1 || in.Rating > 5 {
		fail(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r, model.RoleCustomer)
	if !ok {
		return
	}
	sr, ok := s.requests[in.ServiceRequestID]
	if !ok {
		fail(w, http.StatusNotFound, "Service request not found")
		return
	}
	c := s.customerByUser(a.user.ID)
	if c == nil || sr.CustomerID != c.id {
		fail(w, http.StatusForbidden, "Not authorized to review this service request")
		return
	}
	if (sr.Status != model.StatusCompleted && sr.Status != model.StatusClosed) || sr.ProfessionalID == nil {
		fail(w, http.StatusBadRequest, "Can only review completed service requests")
		return
	}
	for _, rv := range s.reviews {
		if rv.ServiceRequestID == sr.ID {
			fail(w, http.StatusBadRequest, "Review already submitted for this service request")
			return
		}
	}

	p := s.professionals[*sr.ProfessionalID]
	rv := &model.Review{
		ID:               s.next("review"),
		ServiceRequestID: sr.ID,
		CustomerID:       c.id,
		CustomerName:     a.user.Name,
		ProfessionalID:   *sr.ProfessionalID,
		Rating:           in.Rating,
		Comment:          in.Comment,
		CreatedAt:        now(),
	}
	if p != nil {
		rv.ProfessionalName = s.accounts[p.userID].user.Name
		s.notify(p.userID, "new_review", "You received a new "+strconv.Itoa(in.Rating)+"-star review.")
	}
	s.reviews[rv.ID] = rv
	writeJSON(w, http.StatusCreated, msg{"message": "Review submitted successfully", "review": *rv})
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	if in.Rating != 0 && (in.Rating < 1 || in.Rating > 5) {
		fail(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.callerAs(w, r, model.RoleCustomer)
	if !ok {
		return
	}
	rv, ok := s.reviews[id]
	if !ok {
		fail(w, http.StatusNotFound, "Review not found")
		return
	}
	c := s.customerByUser(a.user.ID)
	if c == nil || rv.CustomerID != c.id {
		fail(w, http.StatusForbidden, "Not authorized to update this review")
		return
	}
	if in.Rating != 0 {
		rv.Rating = in.Rating
	}
	if in.Comment != "" {
		rv.Comment = in.Comment
	}
	writeJSON(w, http.StatusOK, msg{"message": "Review updated successfully", "review": *rv})
}
