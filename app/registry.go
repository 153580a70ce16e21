package app

import (
	"strings"
	"sync"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/conf"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// ErrAppRegistered is returned when registering an app whose name is
// already taken.
var ErrAppRegistered = errors.New("app is already registered")

// Registry collects the project's apps and publishes their combined
// route table through a cache region. Routes are stored one cache key
// per URL, with the list of published URLs under the route manifest
// key.
type Registry struct {
	mu    sync.RWMutex
	apps  map[string]*App
	order []string
}

// NewRegistry constructs an empty app registry.
func NewRegistry() *Registry {
	return &Registry{apps: map[string]*App{}}
}

// Add registers an app, rejecting duplicate names.
func (reg *Registry) Add(a *App) error {
	if a == nil || a.Name() == "" {
		return errors.New("cannot register an unnamed app")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.apps[a.Name()]; ok {
		return errors.Wrapf(ErrAppRegistered, "app '%s'", a.Name())
	}

	reg.apps[a.Name()] = a
	reg.order = append(reg.order, a.Name())
	return nil
}

// App returns a registered app by name.
func (reg *Registry) App(name string) (*App, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	a, ok := reg.apps[name]
	return a, ok
}

// AppNames returns the registered app names in registration order.
func (reg *Registry) AppNames() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]string, len(reg.order))
	copy(out, reg.order)
	return out
}

// publishedURL resolves the cache key a route is published under,
// applying the app name prefix when the app or the project enables it.
func publishedURL(project *conf.Project, route *Route) string {
	prefix := false
	if project != nil {
		projectSetting, _ := project.GetBool(conf.KeyPrefixRouteWithApp)
		prefix = projectSetting

		if value, ok := project.AppGet(route.App, conf.KeyPrefixRouteWithApp); ok {
			if appSetting, isBool := value.(bool); isBool {
				prefix = appSetting
			}
		}
	}

	if !prefix {
		return route.URL
	}

	return "/" + route.App + route.URL
}

// Load publishes every registered route into the cache region and
// writes the route manifest. URL collisions across apps are an error,
// as is running out of cache capacity.
func (reg *Registry) Load(project *conf.Project, cache sserver.RegionCache) error {
	if cache == nil {
		return errors.New("cannot load routes without a cache region")
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	manifest := []string{}
	catcher := grip.NewBasicCatcher()

	for _, name := range reg.order {
		for _, route := range reg.apps[name].routes {
			url := publishedURL(project, route)

			stored, err := cache.PutNew(url, route)
			if err != nil {
				catcher.Add(errors.Wrapf(err, "problem publishing route '%s'", route.Name))
				continue
			}
			if !stored {
				catcher.Add(errors.Errorf("url '%s' is published by more than one route", url))
				continue
			}

			manifest = append(manifest, url)
		}
	}

	catcher.Add(errors.Wrap(cache.Put(sserver.RouteManifestCacheKey, manifest),
		"problem writing route manifest"))

	grip.InfoWhen(!catcher.HasErrors(), message.Fields{
		"message": "published route table",
		"cache":   cache.Name(),
		"apps":    len(reg.order),
		"routes":  len(manifest),
	})

	return catcher.Resolve()
}

// Clear removes the published route table from the cache region.
func Clear(cache sserver.RegionCache) {
	if cache == nil {
		return
	}

	value, ok := cache.Pop(sserver.RouteManifestCacheKey)
	if !ok {
		return
	}

	manifest, ok := value.([]string)
	if !ok {
		return
	}

	for _, url := range manifest {
		cache.Delete(url)
	}
}

// Resolve looks up the route published for a URL. Matching is exact,
// up to a trailing slash.
func Resolve(cache sserver.RegionCache, url string) (*Route, error) {
	if cache == nil {
		return nil, errors.New("cannot resolve routes without a cache region")
	}
	if url == "" {
		url = "/"
	}

	value, ok := cache.Get(url)
	if !ok && url != "/" && strings.HasSuffix(url, "/") {
		value, ok = cache.Get(strings.TrimSuffix(url, "/"))
	}
	if !ok {
		return nil, errors.Wrapf(ErrRouteNotFound, "url '%s'", url)
	}

	route, ok := value.(*Route)
	if !ok {
		return nil, errors.Wrapf(ErrRouteNotFound, "url '%s' is not bound to a route", url)
	}

	return route, nil
}
