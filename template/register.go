package template

import (
	"sync"

	"github.com/aaronboult/sserver/parse"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownTag is returned when a template uses a tag no one has
	// registered.
	ErrUnknownTag = errors.New("unknown template tag")
	// ErrUnclosedBlock is returned when a block tag is missing its end
	// tag.
	ErrUnclosedBlock = errors.New("unclosed block tag")
	// ErrTagRegistered is returned when registering a tag name that is
	// already taken.
	ErrTagRegistered = errors.New("tag is already registered")
)

// InlineTagFunc renders an inline tag. The returned text replaces the
// tag in the output.
type InlineTagFunc func(r *Renderer, ctx parse.Context, args string) (string, error)

// BlockTagFunc renders one branch of a block tag. The contents are the
// raw template text between the branch tag and the next branch or the
// end tag. The boolean reports whether the branch handled the block;
// an unhandled branch passes control to the block's next branch.
type BlockTagFunc func(r *Renderer, ctx parse.Context, contents, args string) (string, bool, error)

type blockTag struct {
	endTag  string
	fn      BlockTagFunc
	subTags map[string]BlockTagFunc
}

// Registry maps tag names to their implementations. The zero value is
// not usable; construct registries with NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	inline map[string]InlineTagFunc
	block  map[string]blockTag
}

// NewRegistry constructs an empty tag registry.
func NewRegistry() *Registry {
	return &Registry{
		inline: map[string]InlineTagFunc{},
		block:  map[string]blockTag{},
	}
}

// defaultRegistry holds the builtin tags and any tags registered
// through the package-level registration functions.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by renderers that are not
// given one explicitly.
func DefaultRegistry() *Registry { return defaultRegistry }

// RegisterInlineTag adds an inline tag to the default registry.
func RegisterInlineTag(name string, fn InlineTagFunc) error {
	return defaultRegistry.AddInlineTag(name, fn)
}

// RegisterBlockTag adds a block tag to the default registry.
func RegisterBlockTag(name, endTag string, fn BlockTagFunc, subTags map[string]BlockTagFunc) error {
	return defaultRegistry.AddBlockTag(name, endTag, fn, subTags)
}

// AddInlineTag registers an inline tag, rejecting names that collide
// with existing tags or sub-tags.
func (reg *Registry) AddInlineTag(name string, fn InlineTagFunc) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.taken(name) {
		return errors.Wrapf(ErrTagRegistered, "cannot register inline tag '%s'", name)
	}
	if fn == nil {
		return errors.Errorf("inline tag '%s' requires a tag function", name)
	}

	reg.inline[name] = fn
	return nil
}

// AddBlockTag registers a block tag with its end tag and optional
// sub-tags, rejecting names that collide with existing tags or
// sub-tags.
func (reg *Registry) AddBlockTag(name, endTag string, fn BlockTagFunc, subTags map[string]BlockTagFunc) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.taken(name) {
		return errors.Wrapf(ErrTagRegistered, "cannot register block tag '%s'", name)
	}
	if endTag == "" {
		return errors.Errorf("block tag '%s' requires an end tag", name)
	}
	if fn == nil {
		return errors.Errorf("block tag '%s' requires a tag function", name)
	}
	for subName, subFn := range subTags {
		if reg.taken(subName) {
			return errors.Wrapf(ErrTagRegistered, "cannot register sub-tag '%s' of '%s'", subName, name)
		}
		if subFn == nil {
			return errors.Errorf("sub-tag '%s' of '%s' requires a tag function", subName, name)
		}
	}

	reg.block[name] = blockTag{endTag: endTag, fn: fn, subTags: subTags}
	return nil
}

func (reg *Registry) taken(name string) bool {
	if _, ok := reg.inline[name]; ok {
		return true
	}
	if _, ok := reg.block[name]; ok {
		return true
	}

	for _, block := range reg.block {
		if _, ok := block.subTags[name]; ok {
			return true
		}
	}

	return false
}

func (reg *Registry) inlineTag(name string) (InlineTagFunc, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	fn, ok := reg.inline[name]
	return fn, ok
}

func (reg *Registry) blockTag(name string) (blockTag, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	block, ok := reg.block[name]
	return block, ok
}
