package operations

import (
	"strings"

	"github.com/aaronboult/sserver"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	projectRootFlag    = "project"
	configFileFlag     = "conf"
	outputFlagName     = "output"
	appNameFlag        = "app"
	portFlag           = "port"
	socketFlag         = "socket"
	socketModeFlag     = "socketMode"
	userFlag           = "user"
	groupFlag          = "group"
	prefixFlag         = "prefix"
	disableCORSFlag    = "disableCORS"
	cacheRegionFlag    = "cacheRegion"
	cacheCapacityFlag  = "cacheCapacity"
	cacheStoreFlag     = "cacheStore"
	storeOnDeleteFlag  = "storeOnDelete"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func projectFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   joinFlagNames(projectRootFlag, "p"),
			Usage:  "path to the project root directory",
			Value:  ".",
			EnvVar: "SSERVER_PROJECT_ROOT",
		},
		cli.StringFlag{
			Name:  configFileFlag,
			Usage: "name of the project and app config files",
			Value: sserver.DefaultConfigFilename,
		})
}

func cacheFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  cacheRegionFlag,
			Usage: "name of the shared cache region",
			Value: sserver.DefaultCacheRegion,
		},
		cli.IntFlag{
			Name:  cacheCapacityFlag,
			Usage: "maximum number of items the cache region holds",
			Value: sserver.DefaultCacheCapacity,
		},
		cli.StringFlag{
			Name:  cacheStoreFlag,
			Usage: "path to the cache region's backing store file",
		},
		cli.BoolFlag{
			Name:  storeOnDeleteFlag,
			Usage: "snapshot the cache region to the backing store on every delete",
		})
}

func serviceFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:   portFlag,
			Usage:  "port to serve HTTP traffic on",
			Value:  sserver.DefaultPort,
			EnvVar: "SSERVER_SERVICE_PORT",
		},
		cli.StringFlag{
			Name:  socketFlag,
			Usage: "path of the UNIX domain socket to serve on",
			Value: sserver.DefaultSocketPath,
		},
		cli.StringFlag{
			Name:  socketModeFlag,
			Usage: "octal permission mode applied to the socket file",
			Value: "666",
		},
		cli.StringFlag{
			Name:  userFlag,
			Usage: "user to run as after binding listeners",
			Value: sserver.DefaultRunAsUser,
		},
		cli.StringFlag{
			Name:  groupFlag,
			Usage: "group to run as after binding listeners",
			Value: sserver.DefaultRunAsGroup,
		},
		cli.StringFlag{
			Name:  prefixFlag,
			Usage: "prefix for all routes the service exposes",
		},
		cli.BoolFlag{
			Name:  disableCORSFlag,
			Usage: "disable CORS support on all routes",
		})
}
