package app

import (
	"context"

	"github.com/aaronboult/sserver/parse"
	"github.com/aaronboult/sserver/template"
	"github.com/pkg/errors"
)

// TemplateEndpoint serves a rendered template on GET. The template is
// resolved in the owning app's template folder, and the optional
// Context function builds the render context from the request.
type TemplateEndpoint struct {
	Template string
	Context  func(context.Context, *Request) (parse.Context, error)
}

func (e *TemplateEndpoint) Get(ctx context.Context, r *Request) (interface{}, error) {
	if e.Template == "" {
		return nil, errors.New("template endpoint has no template")
	}
	if r.Project == nil || r.Route == nil {
		return nil, errors.New("template endpoint requires a resolved route and project")
	}

	renderCtx := parse.Context{}
	if e.Context != nil {
		var err error
		renderCtx, err = e.Context(ctx, r)
		if err != nil {
			return nil, errors.Wrap(err, "problem building template context")
		}
	}

	out, err := template.NewLoader(r.Project).RenderForApp(r.Route.App, e.Template, renderCtx)
	if err != nil {
		return nil, errors.Wrapf(err, "problem rendering template '%s'", e.Template)
	}

	return out, nil
}
