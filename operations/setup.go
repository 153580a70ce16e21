package operations

import (
	"os"
	"path/filepath"

	"github.com/aaronboult/sserver"
	"github.com/aaronboult/sserver/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const (
	setupProjectConfig = `project:
  prefix_route_with_app_name: false
`

	setupAppConfig = `routes:
  - url: /
    name: index
    template: index.html
`

	setupIndexTemplate = `<!DOCTYPE html>
<html>
  <head><title>{{ title }}</title></head>
  <body>
    <h1>{{ title }}</h1>
  </body>
</html>
`
)

// Setup returns the sub-command that scaffolds a new project: a
// project config file, an apps folder, and a starter app with a
// declared index route.
func Setup() cli.Command {
	return cli.Command{
		Name:  "setup",
		Usage: "scaffold a new project",
		Flags: projectFlags(
			cli.StringFlag{
				Name:  appNameFlag,
				Usage: "name of the starter app to create",
				Value: "main",
			}),
		Before: mergeBeforeFuncs(requireStringFlag(projectRootFlag), requireStringFlag(appNameFlag)),
		Action: func(c *cli.Context) error {
			root := c.String(projectRootFlag)
			appName := c.String(appNameFlag)

			if err := makeProject(root, c.String(configFileFlag), appName); err != nil {
				return errors.Wrap(err, "problem scaffolding project")
			}

			grip.Infof("created project at '%s' with app '%s'", root, appName)
			return nil
		},
	}
}

// makeProject writes the project skeleton, leaving any existing file
// untouched.
func makeProject(root, configFilename, appName string) error {
	if configFilename == "" {
		configFilename = sserver.DefaultConfigFilename
	}

	appDir := filepath.Join(root, "apps", appName)
	templateDir := filepath.Join(appDir, "templates")

	if err := os.MkdirAll(templateDir, 0755); err != nil {
		return errors.Wrap(err, "problem creating project directories")
	}

	files := map[string]string{
		filepath.Join(root, configFilename):      setupProjectConfig,
		filepath.Join(appDir, configFilename):    setupAppConfig,
		filepath.Join(templateDir, "index.html"): setupIndexTemplate,
	}

	for path, contents := range files {
		if util.FileExists(path) {
			grip.Warningf("file '%s' exists, skipping", path)
			continue
		}

		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return errors.Wrapf(err, "problem writing '%s'", path)
		}
	}

	return nil
}
