package graph

import (
	"fmt"

	"github.com/TFMV/graphsketch/models"
)

// GetNodeAttribute reads a single attribute by key. Keys outside the
// models.Attr* set are looked up in the node's free-form properties.
func (s *Store) GetNodeAttribute(id, key string) (any, error) {
	attrs, err := s.NodeAttributes(id)
	if err != nil {
		return nil, err
	}

	switch key {
	case models.AttrX:
		return attrs.X, nil
	case models.AttrY:
		return attrs.Y, nil
	case models.AttrSize:
		return attrs.Size, nil
	case models.AttrColor:
		return attrs.Color, nil
	case models.AttrType:
		return attrs.Type, nil
	case models.AttrLabel:
		return attrs.Label, nil
	case models.AttrHighlighted:
		return attrs.Highlighted, nil
	default:
		return attrs.Properties[key], nil
	}
}

// SetNodeAttribute writes a single attribute by key. A value of the wrong
// type is rejected before the node is touched, so no change is published.
func (s *Store) SetNodeAttribute(id, key string, value any) error {
	var scratch models.NodeAttributes
	if err := setAttribute(&scratch, key, value); err != nil {
		return fmt.Errorf("set %q on node %q: %w", key, id, err)
	}
	return s.UpdateNode(id, func(a models.NodeAttributes) models.NodeAttributes {
		setAttribute(&a, key, value)
		return a
	})
}

// RemoveNodeAttribute resets a single attribute to its zero value, or
// deletes it from the free-form properties.
func (s *Store) RemoveNodeAttribute(id, key string) error {
	return s.UpdateNode(id, func(a models.NodeAttributes) models.NodeAttributes {
		switch key {
		case models.AttrX:
			a.X = 0
		case models.AttrY:
			a.Y = 0
		case models.AttrSize:
			a.Size = 0
		case models.AttrColor:
			a.Color = ""
		case models.AttrType:
			a.Type = ""
		case models.AttrLabel:
			a.Label = ""
		case models.AttrHighlighted:
			a.Highlighted = false
		default:
			delete(a.Properties, key)
		}
		return a
	})
}

// setAttribute leaves a untouched when value has the wrong type.
func setAttribute(a *models.NodeAttributes, key string, value any) error {
	switch key {
	case models.AttrX, models.AttrY, models.AttrSize:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("%w: %q wants a number, got %T", models.ErrInvalidAttribute, key, value)
		}
		switch key {
		case models.AttrX:
			a.X = f
		case models.AttrY:
			a.Y = f
		default:
			a.Size = f
		}
	case models.AttrColor, models.AttrType, models.AttrLabel:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %q wants a string, got %T", models.ErrInvalidAttribute, key, value)
		}
		switch key {
		case models.AttrColor:
			a.Color = str
		case models.AttrType:
			a.Type = str
		default:
			a.Label = str
		}
	case models.AttrHighlighted:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %q wants a bool, got %T", models.ErrInvalidAttribute, key, value)
		}
		a.Highlighted = b
	default:
		if a.Properties == nil {
			a.Properties = make(map[string]any)
		}
		a.Properties[key] = value
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
