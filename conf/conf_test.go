package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, projectYAML string, apps map[string]string) string {
	t.Helper()

	root := t.TempDir()

	if projectYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(projectYAML), 0644))
	}

	for name, appYAML := range apps {
		appDir := filepath.Join(root, "apps", name)
		require.NoError(t, os.MkdirAll(appDir, 0755))
		if appYAML != "" {
			require.NoError(t, os.WriteFile(filepath.Join(appDir, "config.yaml"), []byte(appYAML), 0644))
		}
	}

	return root
}

func TestLoad(t *testing.T) {
	t.Run("DefaultsOnly", func(t *testing.T) {
		project, err := Load(ProjectOptions{Root: t.TempDir()})
		require.NoError(t, err)

		folder, ok := project.GetString(KeyAppFolder)
		assert.True(t, ok)
		assert.Equal(t, "apps", folder)

		prefix, ok := project.GetBool(KeyPrefixRouteWithApp)
		assert.True(t, ok)
		assert.True(t, prefix)

		assert.Empty(t, project.Manifest())
	})
	t.Run("MissingRootErrors", func(t *testing.T) {
		_, err := Load(ProjectOptions{Root: filepath.Join(t.TempDir(), "missing")})
		assert.Error(t, err)
	})
	t.Run("RootMustBeADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "root")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		_, err := Load(ProjectOptions{Root: file})
		assert.Error(t, err)
	})
	t.Run("ProjectFileOverridesDefaults", func(t *testing.T) {
		root := writeProject(t, `
project:
  app_folder: apps
  static_folder: assets
  prefix_route_with_app_name: false
  workers: 4
`, map[string]string{"blog": ""})

		project, err := Load(ProjectOptions{Root: root})
		require.NoError(t, err)

		static, ok := project.GetString(KeyStaticFolder)
		assert.True(t, ok)
		assert.Equal(t, "assets", static)

		prefix, ok := project.GetBool(KeyPrefixRouteWithApp)
		assert.True(t, ok)
		assert.False(t, prefix)

		workers, ok := project.GetInt("workers")
		assert.True(t, ok)
		assert.Equal(t, 4, workers)

		assert.Equal(t, []string{"blog"}, project.Manifest())
	})
	t.Run("AppConfigMergesOverAppDefaults", func(t *testing.T) {
		root := writeProject(t, "", map[string]string{
			"blog": "template_folder: views\ntitle: My Blog\n",
			"shop": "",
		})

		project, err := Load(ProjectOptions{Root: root})
		require.NoError(t, err)
		assert.Equal(t, []string{"blog", "shop"}, project.Manifest())

		folder, ok := project.AppGetString("blog", KeyTemplateFolder)
		assert.True(t, ok)
		assert.Equal(t, "views", folder)

		title, ok := project.AppGet("blog", "title")
		assert.True(t, ok)
		assert.Equal(t, "My Blog", title)

		folder, ok = project.AppGetString("shop", KeyTemplateFolder)
		assert.True(t, ok)
		assert.Equal(t, "templates", folder)

		_, ok = project.App("missing")
		assert.False(t, ok)
	})
	t.Run("SkipDefaults", func(t *testing.T) {
		root := writeProject(t, "project:\n  app_folder: apps\n", map[string]string{"blog": ""})

		project, err := Load(ProjectOptions{Root: root, SkipDefaults: true})
		require.NoError(t, err)

		_, ok := project.Get(KeyStaticFolder)
		assert.False(t, ok)

		_, ok = project.AppGet("blog", KeyTemplateFolder)
		assert.False(t, ok)
	})
	t.Run("SkipDefaultsRequiresAppFolder", func(t *testing.T) {
		_, err := Load(ProjectOptions{Root: t.TempDir(), SkipDefaults: true})
		assert.Error(t, err)
	})
	t.Run("MalformedProjectFile", func(t *testing.T) {
		root := writeProject(t, "project: [not a mapping\n", nil)
		_, err := Load(ProjectOptions{Root: root})
		assert.Error(t, err)
	})
	t.Run("NonMappingProjectSection", func(t *testing.T) {
		root := writeProject(t, "project: 10\n", nil)
		_, err := Load(ProjectOptions{Root: root})
		assert.Error(t, err)
	})
}

func TestNestedGet(t *testing.T) {
	root := writeProject(t, `
project:
  database:
    connection:
      host: localhost
      port: 5432
`, map[string]string{
		"blog": "display:\n  title: My Blog\n",
	})

	project, err := Load(ProjectOptions{Root: root})
	require.NoError(t, err)

	t.Run("ProjectScope", func(t *testing.T) {
		host, ok := project.NestedGet("", "database", "connection", "host")
		assert.True(t, ok)
		assert.Equal(t, "localhost", host)

		port, ok := project.NestedGet("", "database", "connection", "port")
		assert.True(t, ok)
		assert.Equal(t, 5432, port)
	})
	t.Run("AppScope", func(t *testing.T) {
		title, ok := project.NestedGet("blog", "display", "title")
		assert.True(t, ok)
		assert.Equal(t, "My Blog", title)
	})
	t.Run("BrokenPath", func(t *testing.T) {
		_, ok := project.NestedGet("", "database", "connection", "host", "deeper")
		assert.False(t, ok)

		_, ok = project.NestedGet("", "database", "missing")
		assert.False(t, ok)

		_, ok = project.NestedGet("missing", "display")
		assert.False(t, ok)

		_, ok = project.NestedGet("")
		assert.False(t, ok)
	})
	t.Run("Default", func(t *testing.T) {
		assert.Equal(t, "fallback", project.NestedGetDefault("fallback", "", "database", "missing"))
		assert.Equal(t, "localhost", project.NestedGetDefault("fallback", "", "database", "connection", "host"))
	})
}
