package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/rulebook/internal/value"
)

// ErrUnknownHelper is returned by Helpers.Call for an unregistered name.
var ErrUnknownHelper = errors.New("unknown helper")

// HelperFunc is a named utility shared by rules. It receives the session
// state first, then the caller's arguments.
type HelperFunc func(state value.Map, args ...any) (any, error)

// Helpers is the set of helpers bound to one session's state.
type Helpers struct {
	state value.Map
	fns   map[string]HelperFunc
}

func bindHelpers(state value.Map, fns map[string]HelperFunc) Helpers {
	return Helpers{state: state, fns: fns}
}

// Call invokes the named helper with the bound state prepended.
func (h Helpers) Call(name string, args ...any) (any, error) {
	fn, ok := h.fns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHelper, name)
	}
	return fn(h.state, args...)
}

// Has reports whether a helper is registered under name.
func (h Helpers) Has(name string) bool {
	_, ok := h.fns[name]
	return ok
}

// Names returns the registered helper names in sorted order.
func (h Helpers) Names() []string {
	return slices.Sorted(maps.Keys(h.fns))
}
