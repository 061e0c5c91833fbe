package fakeapi

import (
	"cmp"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	pkgcrypto "github.com/and161185/homeservices/internal/crypto"
	"github.com/and161185/homeservices/internal/model"
)

type account struct {
	user    model.User
	hash    pkgcrypto.Hash
	created time.Time
}

type customer struct {
	id      int64
	userID  int64
	address string
	pincode string
	created time.Time
}

type professional struct {
	id           int64
	userID       int64
	serviceID    int64
	bio          string
	years        int
	verification string
	documents    string
	created      time.Time
}

var errEmailTaken = errors.New("A user with that email already exists")

// next returns the next id for kind. Called with s.mu held.
func (s *Server) next(kind string) int64 {
	s.seq[kind]++
	return s.seq[kind]
}

func (s *Server) addAccount(u model.User, password string) (*account, error) {
	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return nil, errEmailTaken
	}
	h, err := s.hashing.NewHash(password)
	if err != nil {
		return nil, err
	}
	u.ID = s.next("user")
	a := &account{user: u, hash: h, created: time.Now()}
	s.accounts[u.ID] = a
	s.byEmail[email] = u.ID
	return a, nil
}

func (s *Server) removeAccount(userID int64) {
	if a, ok := s.accounts[userID]; ok {
		delete(s.byEmail, strings.ToLower(a.user.Email))
		delete(s.accounts, userID)
	}
}

func (s *Server) addService(sv model.Service) *model.Service {
	sv.ID = s.next("service")
	sv.CreatedAt = model.Time{Time: time.Now().UTC()}
	s.services[sv.ID] = &sv
	return &sv
}

func (s *Server) notify(userID int64, typ, message string) *model.Notification {
	n := &model.Notification{
		ID:        s.next("notification"),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		CreatedAt: model.Time{Time: time.Now().UTC()},
	}
	s.notifications[n.ID] = n
	return n
}

func (s *Server) customerByUser(userID int64) *customer {
	for _, c := range s.customers {
		if c.userID == userID {
			return c
		}
	}
	return nil
}

func (s *Server) professionalByUser(userID int64) *professional {
	for _, p := range s.professionals {
		if p.userID == userID {
			return p
		}
	}
	return nil
}

func (s *Server) userView(a *account) model.User {
	u := a.user
	if c := s.customerByUser(u.ID); c != nil {
		id := c.id
		u.CustomerID = &id
	}
	if p := s.professionalByUser(u.ID); p != nil {
		id := p.id
		u.ProfessionalID = &id
	}
	return u
}

func (s *Server) customerView(c *customer) model.Customer {
	a := s.accounts[c.userID]
	return model.Customer{
		ID:       c.id,
		UserID:   c.userID,
		Name:     a.user.Name,
		Email:    a.user.Email,
		Phone:    a.user.Phone,
		Address:  c.address,
		Pincode:  c.pincode,
		IsActive: a.user.IsActive,
	}
}

func (s *Server) professionalView(p *professional) model.Professional {
	a := s.accounts[p.userID]
	out := model.Professional{
		ID:                 p.id,
		UserID:             p.userID,
		Name:               a.user.Name,
		Email:              a.user.Email,
		Phone:              a.user.Phone,
		ServiceID:          p.serviceID,
		Bio:                p.bio,
		YearsExperience:    p.years,
		VerificationStatus: p.verification,
		DocumentsURL:       p.documents,
		IsActive:           a.user.IsActive,
	}
	if sv, ok := s.services[p.serviceID]; ok {
		out.ServiceName = sv.Name
	}
	var sum, n int
	for _, rv := range s.reviews {
		if rv.ProfessionalID == p.id {
			sum += rv.Rating
			n++
		}
	}
	if n > 0 {
		out.Rating = float64(sum) / float64(n)
	}
	return out
}

func (s *Server) requestView(r *model.ServiceRequest) model.ServiceRequest {
	out := *r
	if c, ok := s.customers[r.CustomerID]; ok {
		out.CustomerName = s.accounts[c.userID].user.Name
	}
	if sv, ok := s.services[r.ServiceID]; ok {
		out.ServiceName = sv.Name
	}
	if r.ProfessionalID != nil {
		if p, ok := s.professionals[*r.ProfessionalID]; ok {
			out.ProfessionalName = s.accounts[p.userID].user.Name
		}
	}
	out.Reviews = nil
	for _, rv := range sortedByID(s.reviews) {
		if rv.ServiceRequestID == r.ID {
			out.Reviews = append(out.Reviews, *rv)
		}
	}
	return out
}

func sortedByID[T any](m map[int64]*T) []*T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func newestFirst(a, b *model.ServiceRequest) int {
	if c := b.RequestDate.Compare(a.RequestDate.Time); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// caller returns the authenticated account. Called with s.mu held.
func (s *Server) caller(r *http.Request) (*account, bool) {
	id, ok := UserIDFromCtx(r.Context())
	if !ok {
		return nil, false
	}
	a, ok := s.accounts[id]
	return a, ok
}

// callerAs returns the caller if it has one of roles, answering 401/403 otherwise.
// Called with s.mu held.
func (s *Server) callerAs(w http.ResponseWriter, r *http.Request, roles ...model.Role) (*account, bool) {
	a, ok := s.caller(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "User not found")
		return nil, false
	}
	if len(roles) > 0 && !slices.Contains(roles, a.user.Role) {
		fail(w, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return a, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusNotFound, "Resource not found")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type msg = map[string]any
