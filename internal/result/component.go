package result

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"surveyforge/internal/model"
)

var (
	ErrNoComponents       = errors.New("result experience has no components")
	ErrDuplicateComponent = errors.New("duplicate component id")
)

// Component is an authored component decoded against the registry
type Component struct {
	ID       string
	Type     model.ComponentType
	Order    int
	Position int // index in the authored list, breaks Order ties

	// Config is nil when ConfigErr is set
	Config    model.ComponentConfig
	ConfigErr error

	variant *Variant
}

// Variant returns the registry entry, or nil for unsupported types
func (c *Component) Variant() *Variant { return c.variant }

// RequiresGeneration reports whether the component needs a generation state entry
func (c *Component) RequiresGeneration() bool {
	return c.variant != nil && c.variant.RequiresGeneration()
}

// Prepare decodes raw components and sorts them by Order, ties broken by
// position in raw. Bad configs do not fail Prepare; they are carried on the
// component so it can resolve to Failed on its own.
func Prepare(reg *Registry, raw []model.ResultComponent) ([]Component, error) {
	if len(raw) == 0 {
		return nil, ErrNoComponents
	}

	seen := make(map[string]bool, len(raw))
	out := make([]Component, 0, len(raw))
	for i, rc := range raw {
		id := strings.TrimSpace(rc.ID)
		if id == "" {
			id = fmt.Sprintf("%s-%d", rc.Type, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, id)
		}
		seen[id] = true

		c := Component{ID: id, Type: rc.Type, Order: rc.Order, Position: i}
		v, ok := reg.Lookup(rc.Type)
		if !ok {
			c.ConfigErr = fmt.Errorf("unsupported component type %q", rc.Type)
		} else {
			c.variant = v
			c.Config, c.ConfigErr = v.Decode(rc.Config)
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

// Validate checks authored components strictly, for use when a survey is saved
func Validate(reg *Registry, raw []model.ResultComponent) error {
	if len(raw) == 0 {
		return nil
	}
	comps, err := Prepare(reg, raw)
	if err != nil {
		return err
	}
	for _, c := range comps {
		if c.ConfigErr != nil {
			return fmt.Errorf("component %s: %w", c.ID, c.ConfigErr)
		}
	}
	return nil
}
