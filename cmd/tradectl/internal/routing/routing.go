package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradedesk/tradedesk/pkg/sdk"
)

// Annotation is the cobra annotation naming the route a command renders.
const Annotation = "tradectl/route"

var (
	// ErrLoginRequired is returned when the guard sends the user to login.
	ErrLoginRequired = errors.New("not logged in; run `tradectl auth login`")
	// ErrAdminRequired is returned when a staff-only view is requested.
	ErrAdminRequired = errors.New("admin privileges required")
	// ErrAlreadyLoggedIn is returned for login or register with a session.
	ErrAlreadyLoggedIn = errors.New("already logged in; run `tradectl auth logout` first")
)

// For returns the annotations binding a command to route.
func For(route string) map[string]string {
	return map[string]string{Annotation: route}
}

// Enter navigates to the named route and fails unless the guard lets the
// user stay there.
func Enter(ctx context.Context, guard *sdk.Guard, route string) error {
	location, err := guard.Router().Location(route, nil)
	if err != nil {
		return err
	}
	nav, err := guard.Navigate(ctx, location)
	if err != nil {
		return err
	}
	if nav.Route.Name == route {
		return nil
	}

	switch {
	case nav.Route.Name == sdk.RouteLogin:
		return ErrLoginRequired
	case route == sdk.RouteLogin || route == sdk.RouteRegister:
		return ErrAlreadyLoggedIn
	case nav.Route.Name == sdk.RouteHome:
		return fmt.Errorf("%w for %s", ErrAdminRequired, location)
	default:
		return fmt.Errorf("navigation to %s ended at %s", location, nav.FullPath)
	}
}
