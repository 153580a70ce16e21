// Package app models the applications a project serves: each app owns
// a set of named routes bound to endpoint implementations, and a
// registry publishes the combined route table through the shared cache
// region.
package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/aaronboult/sserver/conf"
	"github.com/pkg/errors"
)

var (
	// ErrMethodNotAllowed is returned by Dispatch when a route's
	// endpoint does not implement the request's method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRouteNotFound is returned when no route is published for a
	// URL.
	ErrRouteNotFound = errors.New("route not found")
)

// Request carries an incoming HTTP request through endpoint dispatch,
// along with the resolved route and the project configuration.
type Request struct {
	*http.Request

	Route   *Route
	Project *conf.Project
}

// Config reads a configuration value for the request's app.
func (r *Request) Config(key string) (interface{}, bool) {
	if r.Project == nil || r.Route == nil {
		return nil, false
	}

	return r.Project.AppGet(r.Route.App, key)
}

// ConfigDefault reads a configuration value for the request's app,
// returning the default when the key is not set.
func (r *Request) ConfigDefault(key string, def interface{}) interface{} {
	if value, ok := r.Config(key); ok {
		return value
	}

	return def
}

// Getter handles GET requests for an endpoint.
type Getter interface {
	Get(context.Context, *Request) (interface{}, error)
}

// Poster handles POST requests for an endpoint.
type Poster interface {
	Post(context.Context, *Request) (interface{}, error)
}

// Putter handles PUT requests for an endpoint.
type Putter interface {
	Put(context.Context, *Request) (interface{}, error)
}

// Patcher handles PATCH requests for an endpoint.
type Patcher interface {
	Patch(context.Context, *Request) (interface{}, error)
}

// Deleter handles DELETE requests for an endpoint.
type Deleter interface {
	Delete(context.Context, *Request) (interface{}, error)
}

// GetFunc adapts a function into a GET endpoint.
type GetFunc func(context.Context, *Request) (interface{}, error)

func (fn GetFunc) Get(ctx context.Context, r *Request) (interface{}, error) { return fn(ctx, r) }

// PostFunc adapts a function into a POST endpoint.
type PostFunc func(context.Context, *Request) (interface{}, error)

func (fn PostFunc) Post(ctx context.Context, r *Request) (interface{}, error) { return fn(ctx, r) }

// PutFunc adapts a function into a PUT endpoint.
type PutFunc func(context.Context, *Request) (interface{}, error)

func (fn PutFunc) Put(ctx context.Context, r *Request) (interface{}, error) { return fn(ctx, r) }

// PatchFunc adapts a function into a PATCH endpoint.
type PatchFunc func(context.Context, *Request) (interface{}, error)

func (fn PatchFunc) Patch(ctx context.Context, r *Request) (interface{}, error) { return fn(ctx, r) }

// DeleteFunc adapts a function into a DELETE endpoint.
type DeleteFunc func(context.Context, *Request) (interface{}, error)

func (fn DeleteFunc) Delete(ctx context.Context, r *Request) (interface{}, error) { return fn(ctx, r) }

// implementsMethod reports whether the endpoint implements any of the
// HTTP method interfaces.
func implementsMethod(endpoint interface{}) bool {
	switch endpoint.(type) {
	case Getter, Poster, Putter, Patcher, Deleter:
		return true
	}

	return false
}

// Route binds a URL to an endpoint within an app.
type Route struct {
	URL      string
	Name     string
	App      string
	Endpoint interface{}
}

// Dispatch invokes the route's endpoint method matching the request's
// HTTP method.
func (route *Route) Dispatch(ctx context.Context, r *Request) (interface{}, error) {
	if route.Endpoint == nil {
		return nil, errors.Wrapf(ErrMethodNotAllowed, "route '%s' has no endpoint", route.Name)
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if ep, ok := route.Endpoint.(Getter); ok {
			return ep.Get(ctx, r)
		}
	case http.MethodPost:
		if ep, ok := route.Endpoint.(Poster); ok {
			return ep.Post(ctx, r)
		}
	case http.MethodPut:
		if ep, ok := route.Endpoint.(Putter); ok {
			return ep.Put(ctx, r)
		}
	case http.MethodPatch:
		if ep, ok := route.Endpoint.(Patcher); ok {
			return ep.Patch(ctx, r)
		}
	case http.MethodDelete:
		if ep, ok := route.Endpoint.(Deleter); ok {
			return ep.Delete(ctx, r)
		}
	}

	return nil, errors.Wrapf(ErrMethodNotAllowed, "route '%s' does not accept %s", route.Name, r.Method)
}

// App is a named collection of routes.
type App struct {
	name   string
	routes []*Route
}

// NewApp constructs an app with the given name.
func NewApp(name string) *App {
	return &App{name: name}
}

// Name returns the app's name.
func (a *App) Name() string { return a.name }

// Routes returns the app's routes in registration order.
func (a *App) Routes() []*Route {
	out := make([]*Route, len(a.routes))
	copy(out, a.routes)
	return out
}

// AddRoute binds a URL to an endpoint. URLs are normalized to a
// leading slash, and the endpoint must implement at least one HTTP
// method.
func (a *App) AddRoute(url, name string, endpoint interface{}) error {
	if a.name == "" {
		return errors.New("app has no name")
	}
	if name == "" {
		return errors.New("route requires a name")
	}
	if endpoint == nil || !implementsMethod(endpoint) {
		return errors.Errorf("endpoint for route '%s' does not implement any HTTP method", name)
	}

	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}

	for _, existing := range a.routes {
		if existing.URL == url {
			return errors.Errorf("app '%s' already has a route at '%s'", a.name, url)
		}
		if existing.Name == name {
			return errors.Errorf("app '%s' already has a route named '%s'", a.name, name)
		}
	}

	a.routes = append(a.routes, &Route{URL: url, Name: name, App: a.name, Endpoint: endpoint})
	return nil
}
