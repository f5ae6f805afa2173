package visitors

import (
	"reflect"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/walker"
)

// Resetter sets accepted leaves to their zero value.
type Resetter struct {
	markers arbor.MarkerSet
}

// NewResetter creates a Resetter accepting markers.
func NewResetter(markers ...arbor.Marker) *Resetter {
	return &Resetter{markers: arbor.NewMarkerSet(markers...)}
}

func (r *Resetter) Accepts(m arbor.Marker) bool {
	return accepts(r.markers, m)
}

func (r *Resetter) VisitLeaf(v *walker.Visit) (any, error) {
	if v.Null() {
		return nil, nil
	}
	return nil, v.Set(reflect.Value{})
}
