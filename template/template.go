// Package template implements the framework's template engine:
// templates are loaded from per-app template folders and rendered with
// comment stripping, logic tags, and expression interpolation.
package template

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aaronboult/sserver/conf"
	"github.com/aaronboult/sserver/parse"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// ErrTemplateNotFound is returned when a named template cannot be
// resolved to a readable file.
var ErrTemplateNotFound = errors.New("template not found")

// Template is a raw template read from an app's template folder.
type Template struct {
	name string
	app  string
	raw  string
}

// Name returns the template's name relative to its app.
func (t *Template) Name() string { return t.name }

// App returns the name of the app the template belongs to.
func (t *Template) App() string { return t.app }

// Raw returns the unrendered template text.
func (t *Template) Raw() string { return t.raw }

// Loader resolves template names against a project's apps.
type Loader struct {
	project *conf.Project
}

// NewLoader constructs a template loader for the given project.
func NewLoader(project *conf.Project) *Loader {
	return &Loader{project: project}
}

// Get loads a template by path, treating the first path component as
// the app name: "blog/index.html" is the template "index.html" in the
// blog app's template folder.
func (l *Loader) Get(name string) (*Template, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(name)), "/")
	if len(parts) < 2 {
		return nil, errors.Wrapf(ErrTemplateNotFound, "template name '%s' does not include an app", name)
	}

	return l.GetForApp(parts[0], strings.Join(parts[1:], "/"))
}

// GetForApp loads a template by name from the named app's template
// folder.
func (l *Loader) GetForApp(app, name string) (*Template, error) {
	if l.project == nil {
		return nil, errors.New("loader has no project configuration")
	}

	appFolder, ok := l.project.GetString(conf.KeyAppFolder)
	if !ok {
		return nil, errors.Errorf("config value '%s' is not set", conf.KeyAppFolder)
	}

	templateFolder, ok := l.project.AppGetString(app, conf.KeyTemplateFolder)
	if !ok {
		return nil, errors.Wrapf(ErrTemplateNotFound, "app '%s' has no template folder", app)
	}

	templateDir := filepath.Join(l.project.Root(), appFolder, app, templateFolder)
	templatePath := filepath.Join(templateDir, filepath.FromSlash(name))

	// reject names that walk out of the template folder
	if !strings.HasPrefix(filepath.Clean(templatePath), filepath.Clean(templateDir)+string(filepath.Separator)) {
		return nil, errors.Wrapf(ErrTemplateNotFound, "template name '%s' is outside the template folder", name)
	}

	if !utility.FileExists(templatePath) {
		return nil, errors.Wrapf(ErrTemplateNotFound, "no template at '%s'", templatePath)
	}

	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading template '%s'", templatePath)
	}

	return &Template{name: name, app: app, raw: string(raw)}, nil
}

// Render loads and renders the named template in one step.
func (l *Loader) Render(name string, ctx parse.Context) (string, error) {
	tmpl, err := l.Get(name)
	if err != nil {
		return "", err
	}

	return NewRenderer(l).Render(tmpl, ctx)
}

// RenderForApp loads and renders a template from the named app.
func (l *Loader) RenderForApp(app, name string, ctx parse.Context) (string, error) {
	tmpl, err := l.GetForApp(app, name)
	if err != nil {
		return "", err
	}

	return NewRenderer(l).Render(tmpl, ctx)
}
