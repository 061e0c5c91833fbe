package auth

// State is the lifecycle position of the client session.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	}
	return "unknown"
}
