package operations

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/app"
	"github.com/aaronboult/sserver/rest"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Service returns the sub-command responsible for serving a project
// over HTTP.
func Service() cli.Command {
	return cli.Command{
		Name:   "service",
		Usage:  "serve a project's apps over HTTP",
		Flags:  mergeFlags(projectFlags(), cacheFlags(), serviceFlags()),
		Before: mergeBeforeFuncs(requireStringFlag(projectRootFlag), requireDirExists(projectRootFlag)),
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			env := sserver.GetEnvironment()
			if err := configure(env, c); err != nil {
				return errors.WithStack(err)
			}

			if err := loadRoutes(env); err != nil {
				return errors.WithStack(err)
			}

			socketMode, err := parseSocketMode(c.String(socketModeFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			service := &rest.Service{
				Port:        c.Int(portFlag),
				SocketPath:  c.String(socketFlag),
				SocketMode:  socketMode,
				Prefix:      c.String(prefixFlag),
				RunAsUser:   c.String(userFlag),
				RunAsGroup:  c.String(groupFlag),
				DisableCORS: c.Bool(disableCORSFlag),
				Environment: env,
			}

			if err := service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			if err := service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem starting service")
			}

			grip.Noticef("starting sserver service on :%d", service.Port)

			if err := service.Run(ctx); err != nil {
				return errors.Wrap(err, "problem running service")
			}

			grip.Info("completed service, terminating.")
			return errors.Wrap(env.Close(), "problem closing environment")
		},
	}
}

// configure builds the application configuration from CLI flags and
// configures the environment with it.
func configure(env sserver.Environment, c *cli.Context) error {
	conf := &sserver.Configuration{
		ProjectRoot:    c.String(projectRootFlag),
		ConfigFilename: c.String(configFileFlag),
		CacheRegion:    c.String(cacheRegionFlag),
		CacheCapacity:  c.Int(cacheCapacityFlag),
		CacheStorePath: c.String(cacheStoreFlag),
		StoreOnDelete:  c.Bool(storeOnDeleteFlag),
	}

	return errors.Wrap(env.Configure(conf), "problem configuring application")
}

// loadRoutes publishes the project's declared routes through the
// environment's cache region.
func loadRoutes(env sserver.Environment) error {
	project, cache, err := sserver.GetProjectWithCache(env)
	if err != nil {
		return errors.WithStack(err)
	}

	reg, err := app.FromProject(project)
	if err != nil {
		return errors.Wrap(err, "problem building routes from project configuration")
	}

	return errors.Wrap(reg.Load(project, cache), "problem publishing routes")
}

func parseSocketMode(raw string) (os.FileMode, error) {
	mode, err := strconv.ParseUint(raw, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "'%s' is not an octal file mode", raw)
	}

	return os.FileMode(mode), nil
}
