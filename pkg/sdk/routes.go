package sdk

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route names the guard and the session refer to.
const (
	RouteLogin    = "login"
	RouteRegister = "register"
	RouteHome     = "home"
)

// Route describes one navigable view and its access requirements.
type Route struct {
	Path          string
	Name          string
	View          string
	RequiresAuth  bool
	RequiresAdmin bool
	Public        bool
}

// DefaultRoutes returns the back-office route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/login", Name: RouteLogin, View: "auth/login", Public: true},
		{Path: "/register", Name: RouteRegister, View: "auth/register", Public: true},
		{Path: "/", Name: RouteHome, View: "dashboard", RequiresAuth: true},
		{Path: "/profile", Name: "profile", View: "auth/profile", RequiresAuth: true},
		{Path: "/catalog/manufacturers", Name: "manufacturers", View: "catalog/manufacturers", RequiresAuth: true, RequiresAdmin: true},
		{Path: "/catalog/products", Name: "products", View: "catalog/products", RequiresAuth: true, RequiresAdmin: true},
		{Path: "/catalog/broker-companies", Name: "broker-companies", View: "catalog/broker-companies", RequiresAuth: true, RequiresAdmin: true},
		{Path: "/catalog/brokers", Name: "brokers", View: "catalog/brokers", RequiresAuth: true, RequiresAdmin: true},
		{Path: "/trading/batches", Name: "batches", View: "trading/batches", RequiresAuth: true},
		{Path: "/trading/batch-items", Name: "batch-items", View: "trading/batch-items", RequiresAuth: true},
		{Path: "/reports/product-quantities", Name: "report-product-quantities", View: "reports/product-quantities", RequiresAuth: true},
		{Path: "/reports/top-manufacturer", Name: "report-top-manufacturer", View: "reports/top-manufacturer", RequiresAuth: true},
		{Path: "/reports/unsold-products", Name: "report-unsold-products", View: "reports/unsold-products", RequiresAuth: true},
		{Path: "/reports/expired-items", Name: "report-expired-items", View: "reports/expired-items", RequiresAuth: true},
		{Path: "/reports/broker-salaries", Name: "report-broker-salaries", View: "reports/broker-salaries", RequiresAuth: true},
		{Path: "/reports/latest-trades", Name: "report-latest-trades", View: "reports/latest-trades", RequiresAuth: true},
	}
}

// Router resolves paths and names against a static route table.
type Router struct {
	routes    []Route
	byName    map[string]Route
	byPattern map[string]Route
	mux       *chi.Mux
}

// NewRouter validates the table and builds the path matcher. The table must
// declare the login and home routes.
func NewRouter(routes []Route) (*Router, error) {
	r := &Router{
		routes:    append([]Route(nil), routes...),
		byName:    make(map[string]Route, len(routes)),
		byPattern: make(map[string]Route, len(routes)),
		mux:       chi.NewRouter(),
	}

	noop := func(http.ResponseWriter, *http.Request) {}
	for _, route := range routes {
		if route.Name == "" || !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("invalid route %q at %q", route.Name, route.Path)
		}
		if _, dup := r.byName[route.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}
		if _, dup := r.byPattern[route.Path]; dup {
			return nil, fmt.Errorf("duplicate route path %q", route.Path)
		}
		r.byName[route.Name] = route
		r.byPattern[route.Path] = route
		r.mux.Get(route.Path, noop)
	}

	for _, required := range []string{RouteLogin, RouteHome} {
		if _, ok := r.byName[required]; !ok {
			return nil, fmt.Errorf("route table must declare %q", required)
		}
	}
	return r, nil
}

// Routes returns the table in declaration order.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Lookup finds a route by name.
func (r *Router) Lookup(name string) (Route, bool) {
	route, ok := r.byName[name]
	return route, ok
}

// Match resolves a full path (query string allowed) to its route.
func (r *Router) Match(fullPath string) (Route, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Route{}, fmt.Errorf("invalid path %q: %w", fullPath, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, fullPath)
	}
	route, ok := r.byPattern[rctx.RoutePattern()]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, fullPath)
	}
	return route, nil
}

// Location builds the full path for a named route with optional query.
func (r *Router) Location(name string, query url.Values) (string, error) {
	route, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	if len(query) == 0 {
		return route.Path, nil
	}
	return route.Path + "?" + query.Encode(), nil
}
