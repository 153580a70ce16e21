package template

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aaronboult/sserver/parse"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// The builtin tags: {% if %}/{% elif %}/{% else %}/{% endif %},
// {% for x in expr %}/{% endfor %}, and {% include 'app/name' %}.
func init() {
	grip.EmergencyPanic(RegisterBlockTag("if", "endif", ifTag, map[string]BlockTagFunc{
		"elif": ifTag,
		"else": elseTag,
	}))
	grip.EmergencyPanic(RegisterBlockTag("for", "endfor", forTag, nil))
	grip.EmergencyPanic(RegisterInlineTag("include", includeTag))
}

// ifTag renders its contents when the condition argument is truthy.
// It backs both the if tag and its elif sub-tag.
func ifTag(r *Renderer, ctx parse.Context, contents, args string) (string, bool, error) {
	if args == "" {
		return "", false, errors.Wrap(parse.ErrSyntax, "if requires a condition")
	}

	value, err := parse.Evaluate(ctx, args)
	if err != nil {
		return "", false, err
	}

	if !parse.Truth(value) {
		return "", false, nil
	}

	rendered, err := r.renderString(contents, ctx)
	return rendered, true, err
}

func elseTag(r *Renderer, ctx parse.Context, contents, args string) (string, bool, error) {
	if args != "" {
		return "", false, errors.Wrap(parse.ErrSyntax, "else takes no arguments")
	}

	rendered, err := r.renderString(contents, ctx)
	return rendered, true, err
}

// forTag renders its contents once per element of the evaluated
// iterable, with the loop variable bound in the context. Maps iterate
// over their keys in sorted order, strings over their characters. The
// loop variable's previous binding, if any, is restored afterwards.
func forTag(r *Renderer, ctx parse.Context, contents, args string) (string, bool, error) {
	parts := strings.SplitN(args, " in ", 2)
	if len(parts) != 2 {
		return "", false, errors.Wrapf(parse.ErrSyntax, "malformed for arguments '%s'", args)
	}

	loopVar := strings.TrimSpace(parts[0])
	if loopVar == "" || strings.ContainsAny(loopVar, ". ") {
		return "", false, errors.Wrapf(parse.ErrSyntax, "invalid loop variable '%s'", loopVar)
	}

	value, err := parse.Evaluate(ctx, strings.TrimSpace(parts[1]))
	if err != nil {
		return "", false, err
	}

	elements, err := iterate(value)
	if err != nil {
		return "", false, err
	}

	previous, hadPrevious := ctx[loopVar]
	defer func() {
		if hadPrevious {
			ctx[loopVar] = previous
		} else {
			delete(ctx, loopVar)
		}
	}()

	var out strings.Builder
	for _, element := range elements {
		ctx[loopVar] = element

		rendered, err := r.renderString(contents, ctx)
		if err != nil {
			return "", false, err
		}

		out.WriteString(rendered)
	}

	return out.String(), true, nil
}

// includeTag renders another template in place with the current
// context. The argument is an expression naming the template.
func includeTag(r *Renderer, ctx parse.Context, args string) (string, error) {
	if r.loader == nil {
		return "", errors.New("include requires a template loader")
	}

	value, err := parse.Evaluate(ctx, args)
	if err != nil {
		return "", err
	}

	name, ok := value.(string)
	if !ok {
		return "", errors.Errorf("include requires a template name, got %T", value)
	}

	tmpl, err := r.loader.Get(name)
	if err != nil {
		return "", err
	}

	return r.renderString(tmpl.Raw(), ctx)
}

func iterate(value interface{}) ([]interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if text, ok := value.(string); ok {
		out := make([]interface{}, 0, len(text))
		for _, char := range text {
			out = append(out, string(char))
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, 0, rv.Len())
		for idx := 0; idx < rv.Len(); idx++ {
			out = append(out, rv.Index(idx).Interface())
		}
		return out, nil
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			keys = append(keys, fmt.Sprintf("%v", key.Interface()))
		}
		sort.Strings(keys)

		out := make([]interface{}, 0, len(keys))
		for _, key := range keys {
			out = append(out, key)
		}
		return out, nil
	}

	return nil, errors.Errorf("cannot iterate over %T", value)
}
