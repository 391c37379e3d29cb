package sdk

import (
	"context"
	"fmt"
	"net/url"
)

// RedirectParam is the query parameter carrying the originally requested path.
const RedirectParam = "redirect"

const maxRedirects = 3

// SessionState is what the guard needs from the session.
type SessionState interface {
	Init(ctx context.Context) error
	Token() string
	IsAdmin() bool
}

// Decision is the outcome of one guard evaluation.
type Decision struct {
	// Target is the route that was requested.
	Target Route
	// RedirectTo names the route to go to instead; empty means proceed.
	RedirectTo string
	Query      url.Values
	Reason     string
}

// Allowed reports whether navigation proceeds to Target unchanged.
func (d Decision) Allowed() bool {
	return d.RedirectTo == ""
}

// Navigation is the settled result of following guard redirects.
type Navigation struct {
	Route    Route
	FullPath string
	Hops     []Decision
}

// Guard evaluates route requirements before every navigation.
type Guard struct {
	session  SessionState
	router   *Router
	listener func(Navigation)
}

// NewGuard binds a guard to a session and route table.
func NewGuard(session SessionState, router *Router) *Guard {
	return &Guard{session: session, router: router}
}

// OnNavigate registers a callback for every settled navigation.
func (g *Guard) OnNavigate(fn func(Navigation)) {
	g.listener = fn
}

// Router returns the route table the guard resolves against.
func (g *Guard) Router() *Router {
	return g.router
}

// Check evaluates navigation to fullPath. Rules are applied in order and the
// first match wins: missing token on an authenticated route goes to login
// (carrying the requested path), missing admin goes home, and an
// authenticated user asking for login or register goes home.
func (g *Guard) Check(ctx context.Context, fullPath string) (Decision, error) {
	if err := g.session.Init(ctx); err != nil {
		return Decision{}, err
	}

	target, err := g.router.Match(fullPath)
	if err != nil {
		return Decision{}, err
	}
	decision := Decision{Target: target}
	hasToken := g.session.Token() != ""

	switch {
	case target.RequiresAuth && !hasToken:
		decision.RedirectTo = RouteLogin
		decision.Query = url.Values{RedirectParam: []string{fullPath}}
		decision.Reason = "authentication required"
	case target.RequiresAdmin && !g.session.IsAdmin():
		decision.RedirectTo = RouteHome
		decision.Reason = "admin privileges required"
	case (target.Name == RouteLogin || target.Name == RouteRegister) && hasToken:
		decision.RedirectTo = RouteHome
		decision.Reason = "already authenticated"
	}
	return decision, nil
}

// Navigate checks fullPath and follows redirects until a route is allowed.
func (g *Guard) Navigate(ctx context.Context, fullPath string) (Navigation, error) {
	nav := Navigation{FullPath: fullPath}
	for i := 0; i <= maxRedirects; i++ {
		decision, err := g.Check(ctx, nav.FullPath)
		if err != nil {
			return nav, err
		}
		nav.Hops = append(nav.Hops, decision)
		if decision.Allowed() {
			nav.Route = decision.Target
			if g.listener != nil {
				g.listener(nav)
			}
			return nav, nil
		}
		next, err := g.router.Location(decision.RedirectTo, decision.Query)
		if err != nil {
			return nav, err
		}
		nav.FullPath = next
	}
	return nav, fmt.Errorf("%w: %s", ErrTooManyRedirects, fullPath)
}

// Push navigates to a named route. It lets a Guard serve as the session's
// Navigator.
func (g *Guard) Push(ctx context.Context, routeName string) error {
	location, err := g.router.Location(routeName, nil)
	if err != nil {
		return err
	}
	_, err = g.Navigate(ctx, location)
	return err
}
