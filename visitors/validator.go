package visitors

import (
	"sort"
	"sync"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/walker"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Required is the marker checked by a Validator created without markers.
const Required arbor.Marker = "required"

// Validator collects an error for every accepted leaf holding its zero
// value. Leaves inside nil nodes are reported too when the walker includes
// null branches. It is safe for parallel traversals.
type Validator struct {
	markers arbor.MarkerSet

	mu     sync.Mutex
	result *multierror.Error
}

// NewValidator creates a Validator for markers, or for Required if none
// are given.
func NewValidator(markers ...arbor.Marker) *Validator {
	if len(markers) == 0 {
		markers = []arbor.Marker{Required}
	}
	return &Validator{markers: arbor.NewMarkerSet(markers...)}
}

func (r *Validator) Accepts(m arbor.Marker) bool {
	return r.markers.Has(m)
}

func (r *Validator) VisitLeaf(v *walker.Visit) (any, error) {
	val, err := v.Value()
	if err != nil {
		return nil, err
	}
	if val.IsValid() && !val.IsZero() {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = multierror.Append(r.result, errors.Errorf("%s is required", v.Path()))
	return nil, nil
}

// Err returns the collected errors sorted by message, or nil.
func (r *Validator) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return nil
	}
	errs := append([]error(nil), r.result.Errors...)
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return &multierror.Error{Errors: errs}
}

// Reset drops the collected errors.
func (r *Validator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = nil
}

// Validate checks src along tr, descending into nil nodes so that missing
// required members below them are reported.
func Validate(w *walker.Walker, tr *model.Tree, src any, markers ...arbor.Marker) error {
	policy := w.Policy()
	policy.IncludeNullBranches = true
	policy.InstantiateMissingNodes = false
	policy.IgnoreLeaves = false
	policy.VisitNodes = false

	v := NewValidator(markers...)
	if err := w.With(walker.WithPolicy(policy)).PreOrder(tr, v, src); err != nil {
		return err
	}
	return v.Err()
}
