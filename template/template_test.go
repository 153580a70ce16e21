package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aaronboult/sserver/conf"
	"github.com/aaronboult/sserver/parse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTemplateProject scaffolds a project with a single app holding
// the given templates, keyed by name relative to the app's template
// folder.
func writeTemplateProject(t *testing.T, app string, templates map[string]string) *conf.Project {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte("project: {}\n"), 0644))

	templateDir := filepath.Join(root, "apps", app, "templates")
	require.NoError(t, os.MkdirAll(templateDir, 0755))

	for name, contents := range templates {
		path := filepath.Join(templateDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	}

	project, err := conf.Load(conf.ProjectOptions{Root: root})
	require.NoError(t, err)

	return project
}

func TestLoaderGet(t *testing.T) {
	project := writeTemplateProject(t, "blog", map[string]string{
		"index.html":         "<h1>{{ title }}</h1>",
		"partials/item.html": "<li>{{ item }}</li>",
	})
	loader := NewLoader(project)

	for name, test := range map[string]func(t *testing.T){
		"ResolvesAppQualifiedName": func(t *testing.T) {
			tmpl, err := loader.Get("blog/index.html")
			require.NoError(t, err)
			assert.Equal(t, "blog", tmpl.App())
			assert.Equal(t, "index.html", tmpl.Name())
			assert.Equal(t, "<h1>{{ title }}</h1>", tmpl.Raw())
		},
		"ResolvesNestedName": func(t *testing.T) {
			tmpl, err := loader.Get("blog/partials/item.html")
			require.NoError(t, err)
			assert.Equal(t, "partials/item.html", tmpl.Name())
		},
		"GetForApp": func(t *testing.T) {
			tmpl, err := loader.GetForApp("blog", "index.html")
			require.NoError(t, err)
			assert.Equal(t, "<h1>{{ title }}</h1>", tmpl.Raw())
		},
		"NameWithoutApp": func(t *testing.T) {
			_, err := loader.Get("index.html")
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		},
		"MissingTemplate": func(t *testing.T) {
			_, err := loader.Get("blog/missing.html")
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		},
		"UnknownApp": func(t *testing.T) {
			_, err := loader.Get("shop/index.html")
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		},
		"RejectsPathTraversal": func(t *testing.T) {
			_, err := loader.GetForApp("blog", "../../../config.yaml")
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		},
		"NilProject": func(t *testing.T) {
			_, err := NewLoader(nil).Get("blog/index.html")
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}

func TestLoaderRender(t *testing.T) {
	project := writeTemplateProject(t, "blog", map[string]string{
		"index.html": "{% if posts %}{% for post in posts %}{{ post }};{% endfor %}{% else %}no posts{% endif %}",
	})
	loader := NewLoader(project)

	out, err := loader.Render("blog/index.html", parse.Context{"posts": []interface{}{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a;b;", out)

	out, err = loader.RenderForApp("blog", "index.html", parse.Context{})
	require.NoError(t, err)
	assert.Equal(t, "no posts", out)
}

func TestIncludeTag(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"IncludesWithCurrentContext": func(t *testing.T) {
			project := writeTemplateProject(t, "blog", map[string]string{
				"page.html": "<header>{% include 'blog/nav.html' %}</header>",
				"nav.html":  "<nav>{{ section }}</nav>",
			})

			out, err := NewLoader(project).Render("blog/page.html", parse.Context{"section": "home"})
			require.NoError(t, err)
			assert.Equal(t, "<header><nav>home</nav></header>", out)
		},
		"IncludeInsideLoop": func(t *testing.T) {
			project := writeTemplateProject(t, "blog", map[string]string{
				"list.html": "{% for item in items %}{% include 'blog/item.html' %}{% endfor %}",
				"item.html": "[{{ item }}]",
			})

			ctx := parse.Context{"items": []interface{}{"x", "y"}}
			out, err := NewLoader(project).Render("blog/list.html", ctx)
			require.NoError(t, err)
			assert.Equal(t, "[x][y]", out)
		},
		"MissingIncludedTemplate": func(t *testing.T) {
			project := writeTemplateProject(t, "blog", map[string]string{
				"page.html": "{% include 'blog/missing.html' %}",
			})

			_, err := NewLoader(project).Render("blog/page.html", nil)
			assert.ErrorIs(t, err, ErrTemplateNotFound)
		},
		"NonStringArgument": func(t *testing.T) {
			project := writeTemplateProject(t, "blog", map[string]string{
				"page.html": "{% include 5 %}",
			})

			_, err := NewLoader(project).Render("blog/page.html", nil)
			assert.Error(t, err)
		},
		"NoLoader": func(t *testing.T) {
			_, err := NewRenderer(nil).RenderString("{% include 'blog/nav.html' %}", nil)
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}
