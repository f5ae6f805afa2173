package visitors

import (
	"strings"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/walker"
	"github.com/pkg/errors"
)

// Exporter renders an instance as nested maps keyed by member name. A
// member's key is the name of its json tag, else of its yaml tag, else the
// field name. Nil nodes and unaccepted leaves are omitted.
type Exporter struct {
	markers arbor.MarkerSet
}

// NewExporter creates an Exporter for the leaves carrying markers.
func NewExporter(markers ...arbor.Marker) *Exporter {
	return &Exporter{markers: arbor.NewMarkerSet(markers...)}
}

func (x *Exporter) Accepts(m arbor.Marker) bool {
	return accepts(x.markers, m)
}

// Map returns the export key of e. Leaf keys are taken from this mapping,
// so a visitor embedding Exporter can rename leaves by overriding Map.
func (x *Exporter) Map(e *model.Element) (any, error) {
	return exportKey(e), nil
}

// entry is a member rendered under its export key.
type entry struct {
	key   string
	value any
}

func (x *Exporter) VisitLeaf(v *walker.Visit) (any, error) {
	val, err := v.Interface()
	if err != nil {
		return nil, err
	}
	key, ok := v.Mapped.(string)
	if !ok {
		key = exportKey(v.Element)
	}
	return entry{key: key, value: val}, nil
}

func (x *Exporter) VisitNode(v *walker.Visit) (any, error) {
	out := entry{key: exportKey(v.Element)}
	if !v.Element.IsCollection() {
		out.value = object(v.Results)
		return out, nil
	}
	list := make([]any, len(v.Items))
	for i, results := range v.Items {
		if results != nil {
			list[i] = object(results)
		}
	}
	out.value = list
	return out, nil
}

func object(results []any) map[string]any {
	out := make(map[string]any, len(results))
	for _, r := range results {
		if e, ok := r.(entry); ok {
			out[e.key] = e.value
		}
	}
	return out
}

// Export renders src along tr. The root is always a map, possibly empty.
func Export(w *walker.Walker, tr *model.Tree, src any, markers ...arbor.Marker) (map[string]any, error) {
	policy := w.Policy()
	policy.VisitNodes = true
	policy.IncludeNullBranches = false
	policy.InstantiateMissingNodes = false
	policy.IgnoreLeaves = false

	return exportWith(w.With(walker.WithPolicy(policy)), tr, NewExporter(markers...), src)
}

// exportWith walks src with x and unwraps the root object.
func exportWith(w *walker.Walker, tr *model.Tree, x walker.Visitor, src any) (map[string]any, error) {
	res, err := w.PostOrder(tr, x, src)
	if err != nil {
		return nil, err
	}
	root, ok := res.(entry)
	if !ok {
		return nil, errors.Errorf("exporter: root result is %T", res)
	}
	out, ok := root.value.(map[string]any)
	if !ok {
		return nil, errors.Errorf("exporter: root value is %T", root.value)
	}
	return out, nil
}

func exportKey(e *model.Element) string {
	tag := e.Descriptor().Tag
	for _, key := range []string{"json", "yaml"} {
		name, _, _ := strings.Cut(tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return e.Name()
}
