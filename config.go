package sserver

import (
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Configuration defines the runtime settings for an sserver process:
// where the project lives on disk and how the shared cache region
// behaves. The HTTP surface is configured separately on rest.Service.
type Configuration struct {
	ProjectRoot    string
	ConfigFilename string
	CacheRegion    string
	CacheCapacity  int
	CacheStorePath string
	StoreOnDelete  bool
	RunAsUser      string
	RunAsGroup     string
}

func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if c.ConfigFilename == "" {
		c.ConfigFilename = DefaultConfigFilename
	}
	if c.CacheRegion == "" {
		c.CacheRegion = DefaultCacheRegion
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
	if c.CacheCapacity < 0 {
		catcher.Add(errors.New("cache capacity must be positive"))
	}
	if c.StoreOnDelete && c.CacheStorePath == "" {
		catcher.Add(errors.New("store-on-delete requires a cache store path"))
	}
	if c.RunAsUser == "" {
		c.RunAsUser = DefaultRunAsUser
	}
	if c.RunAsGroup == "" {
		c.RunAsGroup = DefaultRunAsGroup
	}

	return catcher.Resolve()
}
