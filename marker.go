package arbor

import "strings"

// Marker names a visitor capability. A leaf element carries exactly one
// marker; a visitor decides per marker whether it processes the leaf.
type Marker string

// NoMarker is the marker of node elements.
const NoMarker Marker = ""

// String returns the marker name.
func (m Marker) String() string {
	return string(m)
}

// IsZero reports whether m is the empty marker.
func (m Marker) IsZero() bool {
	return m == NoMarker
}

// ParseMarkers splits a comma separated marker list, trimming blanks and
// dropping empty items. Order is preserved.
func ParseMarkers(s string) []Marker {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	markers := make([]Marker, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		markers = append(markers, Marker(p))
	}
	return markers
}

// MarkerSet is a set of markers.
type MarkerSet map[Marker]struct{}

// NewMarkerSet creates a set holding the given markers.
func NewMarkerSet(markers ...Marker) MarkerSet {
	s := make(MarkerSet, len(markers))
	for _, m := range markers {
		s[m] = struct{}{}
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkerSet) Has(m Marker) bool {
	_, ok := s[m]
	return ok
}
