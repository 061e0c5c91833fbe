package router

import "github.com/and161185/homeservices/internal/model"

// Outcome is the verdict of the guard.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectRoleHome
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectRoleHome:
		return "redirect-role-home"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// Decision is an outcome and, for redirects, the route to go to instead.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Guard decides whether the session may enter r. Rules apply in order:
// authentication, guest-only, role match.
func Guard(r Route, s model.Session) Decision {
	authed := s.Authenticated()

	if r.RequiresAuth && !authed {
		return Decision{Outcome: RedirectLogin, Target: Login}
	}
	if r.RequiresGuest && authed {
		home := HomeFor(s.Role())
		if home == Home {
			return Decision{Outcome: RedirectHome, Target: Home}
		}
		return Decision{Outcome: RedirectRoleHome, Target: home}
	}
	if r.Role != "" && s.Role() != r.Role {
		return Decision{Outcome: RedirectHome, Target: Home}
	}
	return Decision{Outcome: Allow, Target: r.Name}
}
