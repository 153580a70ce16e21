package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromProject(t *testing.T) {
	for name, test := range map[string]func(t *testing.T){
		"BuildsDeclaredRoutes": func(t *testing.T) {
			project := loadTestProject(t, "project: {}\n", map[string]string{
				"blog": "routes:\n  - url: /\n    name: index\n    template: index.html\n  - url: /about\n    name: about\n    template: about.html\n",
			})

			reg, err := FromProject(project)
			require.NoError(t, err)
			assert.Equal(t, []string{"blog"}, reg.AppNames())

			blog, ok := reg.App("blog")
			require.True(t, ok)
			require.Len(t, blog.Routes(), 2)

			route := blog.Routes()[0]
			assert.Equal(t, "/", route.URL)
			assert.Equal(t, "index", route.Name)
			assert.IsType(t, &TemplateEndpoint{}, route.Endpoint)
		},
		"AppsWithoutRoutesAreSkipped": func(t *testing.T) {
			project := loadTestProject(t, "project: {}\n", map[string]string{"blog": ""})

			reg, err := FromProject(project)
			require.NoError(t, err)
			assert.Empty(t, reg.AppNames())
		},
		"RejectsNonListRoutes": func(t *testing.T) {
			project := loadTestProject(t, "project: {}\n", map[string]string{
				"blog": "routes: notalist\n",
			})

			_, err := FromProject(project)
			assert.Error(t, err)
		},
		"RejectsIncompleteRoute": func(t *testing.T) {
			project := loadTestProject(t, "project: {}\n", map[string]string{
				"blog": "routes:\n  - url: /\n    name: index\n",
			})

			_, err := FromProject(project)
			assert.Error(t, err)
		},
		"NilProject": func(t *testing.T) {
			_, err := FromProject(nil)
			assert.Error(t, err)
		},
	} {
		t.Run(name, test)
	}
}
