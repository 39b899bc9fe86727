package model

// Route is the screen the user should be on
type Route string

const (
	RouteLanding      Route = "landing"
	RouteRegistration Route = "registration"
	RouteWaiting      Route = "waiting"
	RouteDashboard    Route = "dashboard"
)

func (r Route) String() string {
	return string(r)
}

// ResolveRoute decides where a visitor goes based on wallet connection and the stored record
func ResolveRoute(connected bool, user *User) Route {
	switch {
	case !connected:
		return RouteLanding
	case user == nil:
		return RouteRegistration
	case !user.HasCard():
		return RouteWaiting
	default:
		return RouteDashboard
	}
}
