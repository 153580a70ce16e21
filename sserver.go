/*
Package sserver holds a number of application level constants and shared
resources for the sserver application server.
*/
package sserver

const (
	// DefaultPort is the TCP port the HTTP listener binds when no port
	// is configured.
	DefaultPort = 80

	// DefaultSocketPath is the UNIX domain socket the service binds
	// next to the TCP listener.
	DefaultSocketPath = "/tmp/__main__.sock"

	// DefaultSocketMode is the permission mode applied to the UNIX
	// socket file after binding.
	DefaultSocketMode = 0666

	// DefaultCacheRegion is the name of the shared in-memory cache
	// region backing config, routes, and application data.
	DefaultCacheRegion = "__main__"

	// DefaultCacheCapacity is the item capacity of the shared cache
	// region.
	DefaultCacheCapacity = 100

	// DefaultRunAsUser and DefaultRunAsGroup are the process identity
	// the service drops to after binding its listeners when started as
	// root.
	DefaultRunAsUser  = "www-data"
	DefaultRunAsGroup = "www-data"

	// DefaultConfigFilename is the name of the project and per-app
	// configuration files.
	DefaultConfigFilename = "config.yaml"

	ConfigCacheKey         = "sserver.config"
	ConfigManifestCacheKey = "sserver.config_package_manifest"
	RouteManifestCacheKey  = "route_manifest"
	StaticMapCacheKey      = "__static__"
)

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""
