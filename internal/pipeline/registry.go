package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrInvalidRoute   = errors.New("invalid route")
)

// Registry collects routes until Mount.
type Registry struct {
	routes  []Route
	mounted bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a route. Adding after Mount is a programming error.
func (r *Registry) Add(route Route) {
	if r.mounted {
		panic(fmt.Sprintf("pipeline: %s %s added after Mount", route.Method, route.Path))
	}
	r.routes = append(r.routes, route)
}

// Routes returns a copy of the registered routes in registration order.
func (r *Registry) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Group returns a builder scope whose paths are prefixed with prefix.
func (r *Registry) Group(prefix string) *Group {
	return &Group{registry: r, prefix: strings.TrimSuffix(prefix, "/")}
}

// Route starts a route on the full path.
func (r *Registry) Route(method, path string) *RouteBuilder {
	return &RouteBuilder{registry: r, method: method, path: path}
}

type Group struct {
	registry *Registry
	prefix   string
}

// Route starts a route at prefix+path. An empty path targets the prefix.
func (g *Group) Route(method, path string) *RouteBuilder {
	full := g.prefix + path
	if full == "" {
		full = "/"
	}
	return g.registry.Route(method, full)
}

// RouteBuilder accumulates stages for an unauthenticated route.
type RouteBuilder struct {
	registry *Registry
	method   string
	path     string
	stages   []Stage
}

// Then appends stages.
func (b *RouteBuilder) Then(stages ...Stage) *RouteBuilder {
	b.stages = append(b.stages, stages...)
	return b
}

// Authenticate appends the authentication stage and unlocks Authorize.
func (b *RouteBuilder) Authenticate(stage AuthenticateStage) *AuthenticatedRoute {
	b.stages = append(b.stages, Stage(stage))
	return &AuthenticatedRoute{builder: b}
}

// Handle completes the route.
func (b *RouteBuilder) Handle(h echo.HandlerFunc) {
	stages := make([]Stage, len(b.stages))
	copy(stages, b.stages)
	b.registry.Add(Route{Method: b.method, Path: b.path, Stages: stages, Handler: h})
}

// AuthenticatedRoute is a route whose pipeline already authenticates.
type AuthenticatedRoute struct {
	builder *RouteBuilder
}

func (a *AuthenticatedRoute) Authorize(stage AuthorizeStage) *AuthenticatedRoute {
	a.builder.stages = append(a.builder.stages, Stage(stage))
	return a
}

func (a *AuthenticatedRoute) Then(stages ...Stage) *AuthenticatedRoute {
	a.builder.Then(stages...)
	return a
}

func (a *AuthenticatedRoute) Handle(h echo.HandlerFunc) {
	a.builder.Handle(h)
}

// pathRoutes holds every method registered on one path.
type pathRoutes struct {
	methods []string
	routes  map[string]Route
}

// dispatch runs the route for the exact request method, or answers 405
// with the path's methods in registration order.
func (p *pathRoutes) dispatch(c echo.Context) error {
	route, ok := p.routes[c.Request().Method]
	if !ok {
		return MethodNotAllowed(c, p.methods)
	}

	for _, stage := range route.Stages {
		if res := stage.Run(c); res.Halted() {
			return res.Err()
		}
	}

	return route.Handler(c)
}

// Mount validates the table and installs one echo route per distinct path.
// Nothing is installed when validation fails.
func (r *Registry) Mount(e *echo.Echo) error {
	if r.mounted {
		return errors.New("pipeline: registry already mounted")
	}

	var (
		problems []error
		order    []string
		byPath   = map[string]*pathRoutes{}
	)

	for _, route := range r.routes {
		switch {
		case route.Method == "":
			problems = append(problems, fmt.Errorf("%w: empty method for %q", ErrInvalidRoute, route.Path))
			continue
		case route.Path == "":
			problems = append(problems, fmt.Errorf("%w: empty path for %s", ErrInvalidRoute, route.Method))
			continue
		case route.Handler == nil:
			problems = append(problems, fmt.Errorf("%w: nil handler for %s %s", ErrInvalidRoute, route.Method, route.Path))
			continue
		}

		for i, stage := range route.Stages {
			if stage.Run == nil {
				problems = append(problems, fmt.Errorf("%w: stage %d (%q) of %s %s has no Run func",
					ErrInvalidRoute, i, stage.Name, route.Method, route.Path))
			}
		}

		method := strings.ToUpper(route.Method)
		route.Method = method

		entry, ok := byPath[route.Path]
		if !ok {
			entry = &pathRoutes{routes: map[string]Route{}}
			byPath[route.Path] = entry
			order = append(order, route.Path)
		}

		if _, dup := entry.routes[method]; dup {
			problems = append(problems, fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, route.Path))
			continue
		}

		entry.routes[method] = route
		entry.methods = append(entry.methods, method)
	}

	if err := errors.Join(problems...); err != nil {
		return err
	}

	for _, path := range order {
		e.Any(path, byPath[path].dispatch)
	}

	r.mounted = true
	return nil
}
