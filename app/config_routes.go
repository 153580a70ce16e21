package app

import (
	"github.com/aaronboult/sserver/conf"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// KeyRoutes is the app config key holding declarative routes: a list
// of mappings with url, name, and template values.
const KeyRoutes = "routes"

// FromProject builds a registry from the routes declared in each
// app's configuration. Declared routes always serve templates.
func FromProject(project *conf.Project) (*Registry, error) {
	if project == nil {
		return nil, errors.New("cannot build a registry without a project")
	}

	reg := NewRegistry()
	catcher := grip.NewBasicCatcher()

	for _, appName := range project.Manifest() {
		declared, ok := project.AppGet(appName, KeyRoutes)
		if !ok {
			continue
		}

		routes, ok := declared.([]interface{})
		if !ok {
			catcher.Add(errors.Errorf("app '%s': '%s' must be a list", appName, KeyRoutes))
			continue
		}

		a := NewApp(appName)
		for idx, item := range routes {
			route, ok := item.(map[string]interface{})
			if !ok {
				catcher.Add(errors.Errorf("app '%s': route %d must be a mapping", appName, idx))
				continue
			}

			url, _ := route["url"].(string)
			name, _ := route["name"].(string)
			templateName, _ := route["template"].(string)

			if url == "" || name == "" || templateName == "" {
				catcher.Add(errors.Errorf(
					"app '%s': route %d requires url, name, and template values", appName, idx))
				continue
			}

			catcher.Add(errors.Wrapf(a.AddRoute(url, name, &TemplateEndpoint{Template: templateName}),
				"app '%s'", appName))
		}

		if len(a.Routes()) > 0 {
			catcher.Add(reg.Add(a))
		}
	}

	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}

	grip.Info(message.Fields{
		"message": "built registry from declared routes",
		"apps":    len(reg.AppNames()),
	})

	return reg, nil
}
