package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aaronboult/sserver/parse"
	"github.com/pkg/errors"
)

var (
	commentTagSyntax       = regexp.MustCompile(`(?s)\{#.*?#\}`)
	logicTagSyntax         = regexp.MustCompile(`\{%(.+?)%\}`)
	interpolationTagSyntax = regexp.MustCompile(`\{\{(.+?)\}\}`)
)

// Renderer renders templates against a tag registry. The loader is
// used by tags that pull in other templates and may be nil when no
// such tags are rendered.
type Renderer struct {
	loader   *Loader
	registry *Registry
}

// NewRenderer constructs a renderer over the default tag registry.
func NewRenderer(loader *Loader) *Renderer {
	return &Renderer{loader: loader, registry: DefaultRegistry()}
}

// NewRendererWithRegistry constructs a renderer with its own tag
// registry.
func NewRendererWithRegistry(loader *Loader, registry *Registry) *Renderer {
	return &Renderer{loader: loader, registry: registry}
}

// Render renders the template with the given context.
func (r *Renderer) Render(tmpl *Template, ctx parse.Context) (string, error) {
	if tmpl == nil {
		return "", errors.New("cannot render a nil template")
	}

	return r.renderString(tmpl.Raw(), ctx)
}

// RenderString renders raw template text with the given context.
func (r *Renderer) RenderString(text string, ctx parse.Context) (string, error) {
	return r.renderString(text, ctx)
}

func (r *Renderer) renderString(text string, ctx parse.Context) (string, error) {
	if ctx == nil {
		ctx = parse.Context{}
	}

	text = commentTagSyntax.ReplaceAllString(text, "")

	text, err := r.processTags(text, ctx)
	if err != nil {
		return "", err
	}

	return r.interpolate(text, ctx)
}

// branch is one arm of a block tag: the opening tag or one of its
// sub-tags, with the span of template text it owns.
type branch struct {
	fn           BlockTagFunc
	args         string
	contentStart int
	contentEnd   int
}

// openBlock tracks the block tag currently awaiting its end tag.
type openBlock struct {
	name     string
	tag      blockTag
	tagStart int
	branches []branch
	depth    int
}

// processTags resolves every logic tag in the text. Block tags consume
// the text up to their end tag; branch selection and rendering is
// delegated to the block's tag functions.
func (r *Renderer) processTags(text string, ctx parse.Context) (string, error) {
	matches := logicTagSyntax.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var out strings.Builder
	next := 0
	var open *openBlock

	for _, match := range matches {
		tagStart, tagEnd := match[0], match[1]
		name, args := deconstructTag(text[match[2]:match[3]])

		if open == nil {
			out.WriteString(text[next:tagStart])
			next = tagEnd

			if tag, ok := r.registry.blockTag(name); ok {
				open = &openBlock{
					name:     name,
					tag:      tag,
					tagStart: tagStart,
					branches: []branch{{fn: tag.fn, args: args, contentStart: tagEnd}},
				}
				continue
			}

			if fn, ok := r.registry.inlineTag(name); ok {
				rendered, err := fn(r, ctx, args)
				if err != nil {
					return "", errors.Wrapf(err, "problem rendering tag '%s'", name)
				}
				out.WriteString(rendered)
				continue
			}

			return "", errors.Wrapf(ErrUnknownTag, "tag '%s'", name)
		}

		// Inside an open block only three tags matter: the block's
		// own sub-tags, its end tag, and nested openings that share
		// the same end tag. Anything else belongs to the block's
		// contents and is handled when the winning branch renders.
		if open.depth == 0 {
			if subFn, ok := open.tag.subTags[name]; ok {
				open.branches[len(open.branches)-1].contentEnd = tagStart
				open.branches = append(open.branches, branch{fn: subFn, args: args, contentStart: tagEnd})
				continue
			}
		}

		if name == open.tag.endTag {
			if open.depth > 0 {
				open.depth--
				continue
			}

			open.branches[len(open.branches)-1].contentEnd = tagStart

			rendered, err := r.renderBlock(open, text, ctx)
			if err != nil {
				return "", err
			}

			out.WriteString(rendered)
			next = tagEnd
			open = nil
			continue
		}

		if nested, ok := r.registry.blockTag(name); ok && nested.endTag == open.tag.endTag {
			open.depth++
		}
	}

	if open != nil {
		return "", errors.Wrapf(ErrUnclosedBlock, "block '%s'", open.name)
	}

	out.WriteString(text[next:])
	return out.String(), nil
}

// renderBlock runs the block's branches in order and returns the
// output of the first branch that handles the block.
func (r *Renderer) renderBlock(open *openBlock, text string, ctx parse.Context) (string, error) {
	for _, br := range open.branches {
		contents := strings.TrimSpace(text[br.contentStart:br.contentEnd])

		rendered, handled, err := br.fn(r, ctx, contents, br.args)
		if err != nil {
			return "", errors.Wrapf(err, "problem rendering block '%s'", open.name)
		}
		if handled {
			return rendered, nil
		}
	}

	return "", nil
}

// interpolate substitutes every {{ expr }} tag with its evaluated
// value. Nil values render as the empty string.
func (r *Renderer) interpolate(text string, ctx parse.Context) (string, error) {
	var firstErr error

	out := interpolationTagSyntax.ReplaceAllStringFunc(text, func(tag string) string {
		if firstErr != nil {
			return ""
		}

		expr := strings.TrimSpace(tag[2 : len(tag)-2])
		value, err := parse.Evaluate(ctx, expr)
		if err != nil {
			firstErr = errors.Wrapf(err, "problem evaluating '%s'", expr)
			return ""
		}
		if value == nil {
			return ""
		}

		return fmt.Sprintf("%v", value)
	})

	if firstErr != nil {
		return "", firstErr
	}

	return out, nil
}

// deconstructTag splits the inside of a logic tag into its name and
// argument string.
func deconstructTag(contents string) (string, string) {
	fields := strings.Fields(strings.TrimSpace(contents))
	if len(fields) == 0 {
		return "", ""
	}

	return fields[0], strings.Join(fields[1:], " ")
}
