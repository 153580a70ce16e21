package sserver

import (
	"sync"

	"github.com/aaronboult/sserver/conf"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global", conf: &Configuration{}} }

// NewEnvironment constructs an isolated environment. Most callers
// should use the global environment from GetEnvironment.
func NewEnvironment(name string) Environment {
	return &envState{name: name, conf: &Configuration{}}
}

// Environment objects provide access to shared configuration and
// state, in a way that you can isolate and test for in
type Environment interface {
	Configure(*Configuration) error

	GetConf() (*Configuration, error)

	// GetCache retrieves the process-wide cache region, which holds
	// the resolved project configuration, the route table, and
	// application data.
	GetCache() (RegionCache, error)
	// SetCache configures the process-wide cache region.
	SetCache(RegionCache) error

	GetProject() (*conf.Project, error)
	SetProject(*conf.Project) error

	// Close releases the environment's resources, including the cache
	// region's backing store.
	Close() error
}

// GetProjectWithCache returns the resolved project configuration and
// the cache region from the given environment.
func GetProjectWithCache(env Environment) (*conf.Project, RegionCache, error) {
	if env == nil {
		return nil, nil, errors.New("env is nil")
	}

	project, err := env.GetProject()
	if err != nil {
		return nil, nil, errors.Wrap(err, "problem getting project configuration")
	}

	cache, err := env.GetCache()
	if err != nil {
		return nil, nil, errors.Wrap(err, "problem getting cache region")
	}

	return project, cache, nil
}

type envState struct {
	name    string
	cache   RegionCache
	project *conf.Project
	conf    *Configuration
	mutex   sync.RWMutex
}

func (c *envState) Configure(config *Configuration) error {
	if err := config.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = config

	cache, err := NewRegion(RegionOptions{
		Name:          config.CacheRegion,
		Capacity:      config.CacheCapacity,
		StorePath:     config.CacheStorePath,
		StoreOnDelete: config.StoreOnDelete,
	})
	if err != nil {
		return errors.Wrap(err, "problem building cache region")
	}

	if config.StoreOnDelete && utility.FileExists(config.CacheStorePath) {
		if err := cache.Load(); err != nil {
			return errors.Wrap(err, "problem restoring cache region from store")
		}
	}

	c.cache = cache

	grip.Info(message.Fields{
		"message":         "configured cache region",
		"region":          config.CacheRegion,
		"capacity":        config.CacheCapacity,
		"store_on_delete": config.StoreOnDelete,
	})

	project, err := conf.Load(conf.ProjectOptions{
		Root:     config.ProjectRoot,
		Filename: config.ConfigFilename,
	})
	if err != nil {
		return errors.Wrap(err, "problem loading project configuration")
	}

	c.project = project

	if err := cache.Put(ConfigCacheKey, project); err != nil {
		return errors.Wrap(err, "problem caching project configuration")
	}
	if err := cache.Put(ConfigManifestCacheKey, project.Manifest()); err != nil {
		return errors.Wrap(err, "problem caching app manifest")
	}

	grip.Info(message.Fields{
		"message": "loaded project configuration",
		"root":    config.ProjectRoot,
		"apps":    project.Manifest(),
	})

	return nil
}

func (c *envState) SetCache(cache RegionCache) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cache != nil {
		return errors.New("cache region exists, cannot overwrite")
	}

	if cache == nil {
		return errors.New("cannot set cache region to nil")
	}

	c.cache = cache
	grip.Noticef("caching a '%s' cache region in the '%s' environment", cache.Name(), c.name)
	return nil
}

func (c *envState) GetCache() (RegionCache, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.cache == nil {
		return nil, errors.New("no cache region defined in the environment")
	}

	return c.cache, nil
}

func (c *envState) SetProject(project *conf.Project) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if project == nil {
		return errors.New("cannot set project to nil")
	}

	c.project = project
	return nil
}

func (c *envState) GetProject() (*conf.Project, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.project == nil {
		return nil, errors.New("no project configuration loaded")
	}

	return c.project, nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct
	out := &Configuration{}
	*out = *c.conf

	return out, nil
}

func (c *envState) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cache == nil {
		return nil
	}

	err := c.cache.Close()
	c.cache = nil
	return errors.WithStack(err)
}
