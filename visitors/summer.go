package visitors

import (
	"reflect"
	"sync"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/walker"
)

// Summer adds up integer, unsigned and floating point leaves. Other kinds
// are ignored. It is safe for parallel traversals.
type Summer struct {
	markers arbor.MarkerSet

	mu    sync.Mutex
	ints  int64
	float float64
	count int
}

// NewSummer creates a Summer accepting markers.
func NewSummer(markers ...arbor.Marker) *Summer {
	return &Summer{markers: arbor.NewMarkerSet(markers...)}
}

func (s *Summer) Accepts(m arbor.Marker) bool {
	return accepts(s.markers, m)
}

func (s *Summer) VisitLeaf(v *walker.Visit) (any, error) {
	val, err := v.Value()
	if err != nil {
		return nil, err
	}
	for val.IsValid() && val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if !val.IsValid() {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.ints += val.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.ints += int64(val.Uint()) //nolint:gosec // overflow wraps like the source type would
	case reflect.Float32, reflect.Float64:
		s.float += val.Float()
	default:
		return nil, nil
	}
	s.count++
	return nil, nil
}

// Int returns the sum of the integer leaves.
func (s *Summer) Int() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ints
}

// Float returns the sum of every numeric leaf.
func (s *Summer) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.float + float64(s.ints)
}

// Count returns the number of numeric leaves summed.
func (s *Summer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Reset clears the totals.
func (s *Summer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints, s.float, s.count = 0, 0, 0
}
