// Package model defines domain entities exchanged with the marketplace backend.
package model

// Role is the marketplace role of an authenticated user.
type Role string

// Known roles.
const (
	RoleAdmin        Role = "admin"
	RoleCustomer     Role = "customer"
	RoleProfessional Role = "professional"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleProfessional:
		return true
	}
	return false
}

// User is the identity returned by login/register. Replaced wholesale on login.
type User struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Phone          string `json:"phone,omitempty"`
	CustomerID     *int64 `json:"customer_id,omitempty"`
	ProfessionalID *int64 `json:"professional_id,omitempty"`
	IsActive       bool   `json:"is_active"`
}

// Session is the client-held authenticated identity and its credentials.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// Authenticated reports whether both the access token and the user are present.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.User != nil
}

// Empty reports whether nothing is stored.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// Consistent reports whether token and user are both present or both absent.
func (s Session) Consistent() bool {
	return (s.AccessToken != "") == (s.User != nil)
}

// Role returns the user's role or "" when anonymous.
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registration is the sign-up payload. Professional-only fields are ignored for customers.
type Registration struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	Name            string `json:"name" validate:"required"`
	Role            Role   `json:"role" validate:"required,oneof=customer professional"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address         string `json:"address,omitempty"`
	Pincode         string `json:"pincode,omitempty" validate:"omitempty,pincode"`
	ServiceID       int64  `json:"service_id,omitempty" validate:"required_if=Role professional"`
	YearsExperience int    `json:"years_experience,omitempty" validate:"gte=0"`
	Bio             string `json:"bio,omitempty"`
}

// AuthResponse is returned by /login and /register.
type AuthResponse struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// RefreshResponse is returned by /refresh.
type RefreshResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
}
