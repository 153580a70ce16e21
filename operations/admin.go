package operations

import (
	"github.com/aaronboult/sserver/app"
	"github.com/aaronboult/sserver/conf"
	"github.com/aaronboult/sserver/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Admin returns the sub-command for inspecting and validating project
// configuration.
func Admin() cli.Command {
	return cli.Command{
		Name:  "admin",
		Usage: "manage a deployed sserver project",
		Subcommands: []cli.Command{
			{
				Name:  "conf",
				Usage: "project configuration",
				Subcommands: []cli.Command{
					dumpConf(),
					validateConf(),
				},
			},
		},
	}
}

func dumpConf() cli.Command {
	return cli.Command{
		Name:  "dump",
		Usage: "write the resolved project configuration to a file or stdout",
		Flags: projectFlags(
			cli.StringFlag{
				Name:  joinFlagNames(outputFlagName, "o"),
				Usage: "path to the output file; prints to stdout when unset",
			}),
		Before: mergeBeforeFuncs(requireStringFlag(projectRootFlag), requireDirExists(projectRootFlag)),
		Action: func(c *cli.Context) error {
			project, err := conf.Load(conf.ProjectOptions{
				Root:     c.String(projectRootFlag),
				Filename: c.String(configFileFlag),
			})
			if err != nil {
				return errors.Wrap(err, "problem loading project configuration")
			}

			resolved := project.Resolved()

			if fileName := c.String(outputFlagName); fileName != "" {
				return errors.WithStack(util.WriteJSON(fileName, resolved))
			}

			return errors.WithStack(util.PrintJSON(resolved))
		},
	}
}

func validateConf() cli.Command {
	return cli.Command{
		Name:   "validate",
		Usage:  "check that the project configuration loads and its routes are well formed",
		Flags:  projectFlags(),
		Before: mergeBeforeFuncs(requireStringFlag(projectRootFlag), requireDirExists(projectRootFlag)),
		Action: func(c *cli.Context) error {
			project, err := conf.Load(conf.ProjectOptions{
				Root:     c.String(projectRootFlag),
				Filename: c.String(configFileFlag),
			})
			if err != nil {
				return errors.Wrap(err, "problem loading project configuration")
			}

			reg, err := app.FromProject(project)
			if err != nil {
				return errors.Wrap(err, "declared routes are not valid")
			}

			grip.Infof("project configuration is valid: %d apps, %d with declared routes",
				len(project.Manifest()), len(reg.AppNames()))
			return nil
		},
	}
}
