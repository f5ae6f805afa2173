// Package visitors provides ready-made visitors.
//
//   - Summer adds up numeric leaves.
//   - Copier builds a deep copy of the marked members (post-order).
//   - Exporter renders marked members as nested maps, ready for YAML or JSON.
//   - Resetter zeroes accepted leaves.
//   - Validator reports zero-valued leaves marked as required.
//
// Each visitor accepts a marker set given at construction; an empty set
// accepts every marker.
package visitors

import (
	"github.com/gofhir/arbor"
)

func accepts(set arbor.MarkerSet, m arbor.Marker) bool {
	return len(set) == 0 || set.Has(m)
}
