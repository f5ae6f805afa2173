package model

import (
	"reflect"

	"github.com/gofhir/arbor"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// applyOrder rearranges the drafts of one level to follow order. The names
// in order must match the classified members exactly: every problem found
// is reported together in one InvalidOrder error.
func applyOrder(owner reflect.Type, drafts []*draft, order []string) ([]*draft, error) {
	if len(order) == 0 {
		return drafts, nil
	}

	byName := make(map[string]*draft, len(drafts))
	for _, d := range drafts {
		byName[d.el.desc.Name] = d
	}

	var errs *multierror.Error
	used := make(map[string]bool, len(order))
	out := make([]*draft, 0, len(drafts))
	for _, name := range order {
		d, ok := byName[name]
		switch {
		case used[name]:
			errs = multierror.Append(errs, errors.Errorf("duplicate name %q", name))
		case !ok:
			errs = multierror.Append(errs, errors.Errorf("unknown name %q", name))
		default:
			out = append(out, d)
		}
		used[name] = true
	}
	for _, d := range drafts {
		if !used[d.el.desc.Name] {
			errs = multierror.Append(errs, errors.Errorf("missing name %q", d.el.desc.Name))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, arbor.InvalidOrderError(typeName(owner), err)
	}
	return out, nil
}
