package fakeapi

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/and161185/homeservices/internal/model"
)

const maxDocumentSize = 8 << 20

func (s *Server) listProfessionals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verifiedOnly := q.Get("verified_only") != "false"
	serviceID, _ := strconv.ParseInt(q.Get("service_id"), 10, 64)
	ratingMin, _ := strconv.ParseFloat(q.Get("rating_min"), 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Professional{}
	for _, p := range sortedByID(s.professionals) {
		v := s.professionalView(p)
		switch {
		case verifiedOnly && v.VerificationStatus != model.VerificationApproved:
		case !v.IsActive:
		case serviceID > 0 && v.ServiceID != serviceID:
		case ratingMin > 0 && v.Rating < ratingMin:
		default:
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, msg{"professionals": out})
}

func (s *Server) getProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[id]
	if !ok {
		fail(w, http.StatusNotFound, "Professional not found")
		return
	}
	writeJSON(w, http.StatusOK, msg{"professional": s.professionalView(p)})
}

// selfProfessional returns the profile in the path when the caller owns it
// (or is an admin and admin is set). Called with s.mu held.
func (s *Server) selfProfessional(w http.ResponseWriter, r *http.Request, admin bool) (*professional, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	a, ok := s.callerAs(w, r)
	if !ok {
		return nil, false
	}
	p, ok := s.professionals[id]
	if !ok {
		fail(w, http.StatusNotFound, "Professional not found")
		return nil, false
	}
	if p.userID != a.user.ID && !(admin && a.user.Role == model.RoleAdmin) {
		fail(w, http.StatusForbidden, "Not authorized to modify this profile")
		return nil, false
	}
	return p, true
}

func (s *Server) updateProfessional(w http.ResponseWriter, r *http.Request) {
	var in model.ProfessionalInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.selfProfessional(w, r, true)
	if !ok {
		return
	}
	if in.ServiceID > 0 {
		if _, ok := s.services[in.ServiceID]; !ok {
			fail(w, http.StatusNotFound, "Service not found")
			return
		}
		p.serviceID = in.ServiceID
	}
	u := &s.accounts[p.userID].user
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.Bio != "" {
		p.bio = in.Bio
	}
	if in.YearsExperience != nil {
		p.years = *in.YearsExperience
	}
	writeJSON(w, http.StatusOK, msg{"message": "Profile updated successfully", "professional": s.professionalView(p)})
}

func (s *Server) deleteProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	p, ok := s.professionals[id]
	if !ok {
		fail(w, http.StatusNotFound, "Professional not found")
		return
	}
	delete(s.professionals, id)
	s.removeAccount(p.userID)
	writeJSON(w, http.StatusOK, msg{"message": "Professional deleted successfully"})
}

func (s *Server) verifyProfessional(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.Verification
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	p, ok := s.professionals[id]
	if !ok {
		fail(w, http.StatusNotFound, "Professional not found")
		return
	}
	switch in.Action {
	case "approve":
		p.verification = model.VerificationApproved
		s.notify(p.userID, "verification", "Your profile has been verified.")
	case "reject":
		p.verification = model.VerificationRejected
		note := "Your verification was rejected."
		if in.Message != "" {
			note += " " + in.Message
		}
		s.notify(p.userID, "verification", note)
	default:
		fail(w, http.StatusBadRequest, "Action must be 'approve' or 'reject'")
		return
	}
	writeJSON(w, http.StatusOK, msg{"message": "Professional " + in.Action + "d", "professional": s.professionalView(p)})
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		fail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	f, hdr, err := r.FormFile("document")
	if err != nil {
		fail(w, http.StatusBadRequest, "No document provided")
		return
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		fail(w, http.StatusBadRequest, "Could not read document")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.selfProfessional(w, r, false)
	if !ok {
		return
	}
	p.documents = "/uploads/" + strconv.FormatInt(p.id, 10) + "/" + filepath.Base(hdr.Filename)
	p.verification = model.VerificationPending
	writeJSON(w, http.StatusOK, msg{"message": "Document uploaded successfully", "professional": s.professionalView(p)})
}

func (s *Server) ownCustomer(w http.ResponseWriter, r *http.Request, admin bool) (*customer, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	a, ok := s.callerAs(w, r)
	if !ok {
		return nil, false
	}
	c, ok := s.customers[id]
	if !ok {
		fail(w, http.StatusNotFound, "Customer not found")
		return nil, false
	}
	if c.userID != a.user.ID && !(admin && a.user.Role == model.RoleAdmin) {
		fail(w, http.StatusForbidden, "Not authorized to access this profile")
		return nil, false
	}
	return c, true
}

func (s *Server) getCustomer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ownCustomer(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, msg{"customer": s.customerView(c)})
}

func (s *Server) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var in model.CustomerInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.ownCustomer(w, r, false)
	if !ok {
		return
	}
	u := &s.accounts[c.userID].user
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.Address != "" {
		c.address = in.Address
	}
	if in.Pincode != "" {
		c.pincode = in.Pincode
	}
	writeJSON(w, http.StatusOK, msg{"message": "Profile updated successfully", "customer": s.customerView(c)})
}

func (s *Server) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	c, ok := s.customers[id]
	if !ok {
		fail(w, http.StatusNotFound, "Customer not found")
		return
	}
	delete(s.customers, id)
	s.removeAccount(c.userID)
	writeJSON(w, http.StatusOK, msg{"message": "Customer deleted successfully"})
}
