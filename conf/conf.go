// Package conf loads and resolves project and per-app configuration
// for sserver projects.
//
// A project is a directory holding a project config file and an apps
// folder; every subdirectory of the apps folder is an app, each with an
// optional config file of its own. Project and app values are merged
// over a layer of framework defaults.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aaronboult/sserver/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	// Well-known project config keys.
	KeyAppFolder           = "app_folder"
	KeyStaticFolder        = "static_folder"
	KeyPrefixRouteWithApp  = "prefix_route_with_app_name"
	KeyTemplateFolder      = "template_folder"
	KeyStaticImageFolder   = "static_image_folder"
	KeyStaticCSSFolder     = "static_css_folder"
	KeyStaticJSFolder      = "static_js_folder"
	defaultConfigFilename  = "config.yaml"
	projectFileSection     = "project"
)

func projectDefaults() map[string]interface{} {
	return map[string]interface{}{
		KeyAppFolder:          "apps",
		KeyStaticFolder:       "static",
		KeyPrefixRouteWithApp: true,
	}
}

func appDefaults() map[string]interface{} {
	return map[string]interface{}{
		KeyTemplateFolder:    "templates",
		KeyStaticImageFolder: "static/image",
		KeyStaticCSSFolder:   "static/css",
		KeyStaticJSFolder:    "static/js",
	}
}

// ProjectOptions describes where a project lives and how to load it.
type ProjectOptions struct {
	Root     string
	Filename string

	// SkipDefaults suppresses the framework's default project and app
	// values, leaving only what the config files declare.
	SkipDefaults bool
}

func (opts *ProjectOptions) Validate() error {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Filename == "" {
		opts.Filename = defaultConfigFilename
	}

	return nil
}

// Project is the resolved configuration for a project and its apps.
type Project struct {
	opts     ProjectOptions
	project  map[string]interface{}
	apps     map[string]map[string]interface{}
	manifest []string
}

// Load reads the project config file and every app config file under
// the project's app folder, merging each over the framework defaults.
// The root directory must exist; missing config files are not errors,
// malformed ones are.
func Load(opts ProjectOptions) (*Project, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	if stat, err := os.Stat(opts.Root); err != nil {
		return nil, errors.Wrapf(err, "project root '%s' does not exist", opts.Root)
	} else if !stat.IsDir() {
		return nil, errors.Errorf("project root '%s' is not a directory", opts.Root)
	}

	p := &Project{
		opts:    opts,
		project: map[string]interface{}{},
		apps:    map[string]map[string]interface{}{},
	}

	if !opts.SkipDefaults {
		p.project = projectDefaults()
	}

	projectPath := filepath.Join(opts.Root, opts.Filename)
	if util.FileExists(projectPath) {
		fileConf := map[string]interface{}{}
		if err := util.ReadFileYAML(projectPath, &fileConf); err != nil {
			return nil, errors.Wrap(err, "problem reading project config")
		}

		if section, ok := fileConf[projectFileSection]; ok {
			values, ok := normalizeValue(section).(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("'%s' section of %s must be a mapping", projectFileSection, projectPath)
			}
			for key, value := range values {
				p.project[key] = value
			}
		}
	}

	appFolder, ok := p.GetString(KeyAppFolder)
	if !ok {
		return nil, errors.Errorf("config value '%s' must be set when defaults are skipped", KeyAppFolder)
	}

	appDir := filepath.Join(opts.Root, appFolder)
	appNames, err := util.DirectoryNames(appDir)
	if err != nil {
		return nil, errors.Wrap(err, "problem listing apps")
	}

	for _, name := range appNames {
		appConf := map[string]interface{}{}
		if !opts.SkipDefaults {
			appConf = appDefaults()
		}

		appPath := filepath.Join(appDir, name, opts.Filename)
		if util.FileExists(appPath) {
			fileConf := map[string]interface{}{}
			if err := util.ReadFileYAML(appPath, &fileConf); err != nil {
				return nil, errors.Wrapf(err, "problem reading config for app '%s'", name)
			}
			for key, value := range fileConf {
				appConf[key] = normalizeValue(value)
			}
		}

		p.apps[name] = appConf
		p.manifest = append(p.manifest, name)

		grip.Debug(message.Fields{
			"message": "loaded app config",
			"app":     name,
			"keys":    len(appConf),
		})
	}

	sort.Strings(p.manifest)

	return p, nil
}

// Root returns the project's root directory.
func (p *Project) Root() string { return p.opts.Root }

// Manifest returns the names of the project's apps in sorted order.
func (p *Project) Manifest() []string {
	out := make([]string, len(p.manifest))
	copy(out, p.manifest)
	return out
}

// Get returns the project-scope value for the given key.
func (p *Project) Get(key string) (interface{}, bool) {
	value, ok := p.project[key]
	return value, ok
}

// GetDefault returns the project-scope value for the given key, or def
// when the key is absent.
func (p *Project) GetDefault(key string, def interface{}) interface{} {
	if value, ok := p.project[key]; ok {
		return value
	}
	return def
}

// GetString returns the project-scope value for the given key as a
// string.
func (p *Project) GetString(key string) (string, bool) {
	value, ok := p.project[key]
	if !ok {
		return "", false
	}

	return stringify(value)
}

// GetInt returns the project-scope value for the given key as an int.
func (p *Project) GetInt(key string) (int, bool) {
	value, ok := p.project[key]
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetBool returns the project-scope value for the given key as a bool.
// Non-boolean values report false.
func (p *Project) GetBool(key string) (bool, bool) {
	value, ok := p.project[key]
	if !ok {
		return false, false
	}

	b, ok := value.(bool)
	return b, ok
}

// App returns the resolved config for the named app.
func (p *Project) App(name string) (map[string]interface{}, bool) {
	app, ok := p.apps[name]
	return app, ok
}

// AppGet returns a value from the named app's config.
func (p *Project) AppGet(app, key string) (interface{}, bool) {
	appConf, ok := p.apps[app]
	if !ok {
		return nil, false
	}

	value, ok := appConf[key]
	return value, ok
}

// AppGetDefault returns a value from the named app's config, or def
// when the app or key is absent.
func (p *Project) AppGetDefault(app, key string, def interface{}) interface{} {
	if value, ok := p.AppGet(app, key); ok {
		return value
	}
	return def
}

// AppGetString returns a value from the named app's config as a
// string.
func (p *Project) AppGetString(app, key string) (string, bool) {
	value, ok := p.AppGet(app, key)
	if !ok {
		return "", false
	}

	return stringify(value)
}

// NestedGet descends the named app's config (or the project config
// when app is empty) one key at a time, treating nested mappings as a
// tree. A broken path reports false rather than panicking.
func (p *Project) NestedGet(app string, keys ...string) (interface{}, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	var node interface{}
	var ok bool

	if app == "" {
		node, ok = p.Get(keys[0])
	} else {
		node, ok = p.AppGet(app, keys[0])
	}
	if !ok {
		return nil, false
	}

	for _, key := range keys[1:] {
		branch, isMap := node.(map[string]interface{})
		if !isMap {
			return nil, false
		}

		node, ok = branch[key]
		if !ok {
			return nil, false
		}
	}

	return node, true
}

// NestedGetDefault is NestedGet with a fallback value.
func (p *Project) NestedGetDefault(def interface{}, app string, keys ...string) interface{} {
	if value, ok := p.NestedGet(app, keys...); ok {
		return value
	}
	return def
}

// Resolved returns the fully merged project and app configuration,
// mostly for dump and inspection tooling.
func (p *Project) Resolved() map[string]interface{} {
	project := make(map[string]interface{}, len(p.project))
	for key, value := range p.project {
		project[key] = value
	}

	apps := make(map[string]interface{}, len(p.apps))
	for name, appConf := range p.apps {
		values := make(map[string]interface{}, len(appConf))
		for key, value := range appConf {
			values[key] = value
		}
		apps[name] = values
	}

	return map[string]interface{}{
		"project": project,
		"apps":    apps,
	}
}

func stringify(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// normalizeValue rewrites yaml.v2's map[interface{}]interface{} values
// into map[string]interface{} trees so lookups can use string keys.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprintf("%v", key)] = normalizeValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for idx, item := range v {
			out[idx] = normalizeValue(item)
		}
		return out
	default:
		return value
	}
}
