package fakeapi

import (
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/limiter"
	"github.com/and161185/homeservices/internal/model"
)

var emailRe = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in model.Credentials
	if !decode(w, r, &in) {
		return
	}

	email := strings.ToLower(in.Email)
	ipHash := limiter.HashIP(clientIP(r))
	allowed, retry, err := s.limiter.Allow(r.Context(), email, ipHash)
	if err != nil {
		s.log.Error("limiter", zap.Error(err))
		fail(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	if !allowed {
		tooManyAttempts(w, retry)
		return
	}

	s.mu.Lock()
	a := s.accounts[s.byEmail[email]]
	s.mu.Unlock()
	if a == nil || !s.hashing.Verify(a.hash, in.Password) {
		if blocked, retry, err := s.limiter.Failure(r.Context(), email, ipHash); err == nil && blocked {
			tooManyAttempts(w, retry)
			return
		}
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	_ = s.limiter.Success(r.Context(), email, ipHash)

	s.mu.Lock()
	active := a.user.IsActive
	u := s.userView(a)
	s.mu.Unlock()
	if !active {
		fail(w, http.StatusUnauthorized, "Account is inactive. Please contact admin.")
		return
	}
	s.signIn(w, http.StatusOK, "Login successful", u)
}

func tooManyAttempts(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second)/time.Second)))
	fail(w, http.StatusTooManyRequests, "Too many failed login attempts. Try again later.")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) signIn(w http.ResponseWriter, status int, message string, u model.User) {
	access, refresh, err := s.issuePair(u.ID)
	if err != nil {
		fail(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	writeJSON(w, status, model.AuthResponse{
		Message:      message,
		AccessToken:  access,
		RefreshToken: refresh,
		User:         u,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in model.Registration
	if !decode(w, r, &in) {
		return
	}
	switch {
	case in.Email == "" || in.Password == "" || in.Name == "":
		fail(w, http.StatusBadRequest, "Email, password and name are required")
		return
	case !emailRe.MatchString(in.Email):
		fail(w, http.StatusBadRequest, "Invalid email format")
		return
	case in.Role != model.RoleCustomer && in.Role != model.RoleProfessional:
		fail(w, http.StatusBadRequest, "Role must be either 'customer' or 'professional'")
		return
	case in.Role == model.RoleProfessional && in.ServiceID == 0:
		fail(w, http.StatusBadRequest, "Service ID is required for professionals")
		return
	}

	s.mu.Lock()
	if in.Role == model.RoleProfessional {
		if _, ok := s.services[in.ServiceID]; !ok {
			s.mu.Unlock()
			fail(w, http.StatusNotFound, "Service not found")
			return
		}
	}
	a, err := s.addAccount(model.User{
		Name:     in.Name,
		Email:    in.Email,
		Role:     in.Role,
		Phone:    in.Phone,
		IsActive: true,
	}, in.Password)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, errEmailTaken) {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		fail(w, http.StatusInternalServerError, "An error occurred")
		return
	}
	created := time.Now()
	if in.Role == model.RoleCustomer {
		id := s.next("customer")
		s.customers[id] = &customer{id: id, userID: a.user.ID, address: in.Address, pincode: in.Pincode, created: created}
	} else {
		id := s.next("professional")
		s.professionals[id] = &professional{
			id:           id,
			userID:       a.user.ID,
			serviceID:    in.ServiceID,
			bio:          in.Bio,
			years:        in.YearsExperience,
			verification: model.VerificationPending,
			created:      created,
		}
	}
	u := s.userView(a)
	s.mu.Unlock()

	s.signIn(w, http.StatusCreated, "User created successfully", u)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.ContentLength != 0 && !decode(w, r, &in) {
		return
	}
	tok := in.RefreshToken
	if tok == "" {
		tok, _ = bearer(r)
	}
	if tok == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing refresh token"})
		return
	}

	if s.refreshDelay > 0 {
		select {
		case <-time.After(s.refreshDelay):
		case <-r.Context().Done():
			return
		}
	}

	id, err := s.parseToken(tok, kindRefresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": tokenMessage(err)})
		return
	}
	s.mu.Lock()
	a, ok := s.accounts[id]
	active := ok && a.user.IsActive
	s.mu.Unlock()
	if !active {
		fail(w, http.StatusUnauthorized, "User not found or inactive")
		return
	}

	access, err := s.issueToken(id, kindAccess)
	if err != nil {
		fail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, model.RefreshResponse{Message: "Token refreshed", AccessToken: access})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, msg{"message": "Logged out successfully"})
}
