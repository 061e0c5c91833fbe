package fakeapi

import (
	"net/http"
	"strings"

	"github.com/and161185/homeservices/internal/model"
)

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	showInactive := r.URL.Query().Get("show_inactive") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Service{}
	for _, sv := range sortedByID(s.services) {
		if !sv.IsActive && !showInactive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(sv.Name), q) && !strings.Contains(strings.ToLower(sv.Description), q) {
			continue
		}
		out = append(out, *sv)
	}
	writeJSON(w, http.StatusOK, msg{"services": out})
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.services[id]
	if !ok {
		fail(w, http.StatusNotFound, "Service not found")
		return
	}
	writeJSON(w, http.StatusOK, msg{"service": *sv})
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var in model.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	if in.Name == "" || in.BasePrice <= 0 {
		fail(w, http.StatusBadRequest, "Name and a positive base price are required")
		return
	}
	for _, sv := range s.services {
		if strings.EqualFold(sv.Name, in.Name) {
			fail(w, http.StatusBadRequest, "A service with that name already exists")
			return
		}
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	sv := s.addService(model.Service{
		Name:          in.Name,
		BasePrice:     in.BasePrice,
		EstimatedTime: in.EstimatedTime,
		Description:   in.Description,
		IsActive:      active,
	})
	writeJSON(w, http.StatusCreated, msg{"message": "Service created successfully", "service": *sv})
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in model.ServiceInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	sv, ok := s.services[id]
	if !ok {
		fail(w, http.StatusNotFound, "Service not found")
		return
	}
	if in.Name != "" {
		sv.Name = in.Name
	}
	if in.BasePrice > 0 {
		sv.BasePrice = in.BasePrice
	}
	if in.EstimatedTime > 0 {
		sv.EstimatedTime = in.EstimatedTime
	}
	if in.Description != "" {
		sv.Description = in.Description
	}
	if in.IsActive != nil {
		sv.IsActive = *in.IsActive
	}
	writeJSON(w, http.StatusOK, msg{"message": "Service updated successfully", "service": *sv})
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.callerAs(w, r, model.RoleAdmin); !ok {
		return
	}
	if _, ok := s.services[id]; !ok {
		fail(w, http.StatusNotFound, "Service not found")
		return
	}
	for _, p := range s.professionals {
		if p.serviceID == id {
			fail(w, http.StatusBadRequest, "Cannot delete a service with registered professionals")
			return
		}
	}
	delete(s.services, id)
	writeJSON(w, http.StatusOK, msg{"message": "Service deleted successfully"})
}
