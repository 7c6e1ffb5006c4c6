package geometry

import (
	"fmt"
)

// ErrEmptyGeometry indicates a geometry with no coordinates to anchor on
type ErrEmptyGeometry struct {
	Type string
}

func (e *ErrEmptyGeometry) Error() string {
	return fmt.Sprintf("empty geometry: %s", e.Type)
}

// ErrUnsupportedGeometry indicates a geometry kind with no anchor rule
type ErrUnsupportedGeometry struct {
	Type string
}

func (e *ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("unsupported geometry type: %s", e.Type)
}
