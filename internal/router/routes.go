// Package router holds the route table of the marketplace client and the
// guard that gates navigation on the current session.
package router

import (
	"strings"

	"github.com/and161185/homeservices/internal/model"
)

// Route names.
const (
	Home                  = "home"
	Login                 = "login"
	Register              = "register"
	Notifications         = "notifications"
	AdminDashboard        = "admin-dashboard"
	AdminCustomers        = "admin-customers"
	AdminProfessionals    = "admin-professionals"
	AdminServices         = "admin-services"
	CustomerDashboard     = "customer-dashboard"
	ProfessionalDashboard = "professional-dashboard"
	ProfessionalProfile   = "professional-profile"
)

// Route is one navigable view and its access requirements.
type Route struct {
	Name          string
	Path          string
	RequiresAuth  bool
	RequiresGuest bool
	Role          model.Role // empty: any authenticated user
}

var table = []Route{
	{Name: Home, Path: "/"},
	{Name: Login, Path: "/login"},
	{Name: Register, Path: "/register", RequiresGuest: true},
	{Name: Notifications, Path: "/notifications", RequiresAuth: true},
	{Name: AdminDashboard, Path: "/admin", RequiresAuth: true, Role: model.RoleAdmin},
	{Name: AdminCustomers, Path: "/admin/customers", RequiresAuth: true, Role: model.RoleAdmin},
	{Name: AdminProfessionals, Path: "/admin/professionals", RequiresAuth: true, Role: model.RoleAdmin},
	{Name: AdminServices, Path: "/admin/services", RequiresAuth: true, Role: model.RoleAdmin},
	{Name: CustomerDashboard, Path: "/customer", RequiresAuth: true, Role: model.RoleCustomer},
	{Name: ProfessionalDashboard, Path: "/professional", RequiresAuth: true, Role: model.RoleProfessional},
	{Name: ProfessionalProfile, Path: "/professional/profile", RequiresAuth: true, Role: model.RoleProfessional},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	return append([]Route(nil), table...)
}

// Lookup finds a route by name.
func Lookup(name string) (Route, bool) {
	for _, r := range table {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Match finds a route by path. Unknown paths resolve to home.
func Match(path string) Route {
	p := "/" + strings.Trim(path, "/")
	for _, r := range table {
		if r.Path == p {
			return r
		}
	}
	home, _ := Lookup(Home)
	return home
}

// HomeFor returns the landing route of a role.
func HomeFor(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return AdminDashboard
	case model.RoleCustomer:
		return CustomerDashboard
	case model.RoleProfessional:
		return ProfessionalDashboard
	default:
		return Home
	}
}
