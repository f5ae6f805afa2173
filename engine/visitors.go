package engine

import (
	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/visitors"
)

// Copy returns a deep copy of src, a pointer to a struct, holding the
// leaves carrying markers (all leaves when none are given).
func (e *Engine) Copy(src any, markers ...arbor.Marker) (any, error) {
	tr, err := e.treeFor(src)
	if err != nil {
		return nil, err
	}
	return visitors.Copy(e.walker, tr, src, markers...)
}

// CopyOf is the typed form of Engine.Copy.
func CopyOf[T any](e *Engine, src *T, markers ...arbor.Marker) (*T, error) {
	tr, err := TreeOf[T](e)
	if err != nil {
		return nil, err
	}
	return visitors.CopyOf(e.walker, tr, src, markers...)
}

// Export renders src as nested maps.
func (e *Engine) Export(src any, markers ...arbor.Marker) (map[string]any, error) {
	tr, err := e.treeFor(src)
	if err != nil {
		return nil, err
	}
	return visitors.Export(e.walker, tr, src, markers...)
}

// Validate reports every zero-valued leaf marked required (or carrying one
// of markers).
func (e *Engine) Validate(src any, markers ...arbor.Marker) error {
	tr, err := e.treeFor(src)
	if err != nil {
		return err
	}
	return visitors.Validate(e.walker, tr, src, markers...)
}
