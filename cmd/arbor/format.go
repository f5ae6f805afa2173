package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/cache"
	"github.com/gofhir/arbor/model"
	"github.com/gofhir/arbor/tree"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return errors.Errorf("unknown format %q, want text|json|yaml", f)
	}
}

// print writes v in the selected format, using text for the text format.
func (a *app) print(cmd *cobra.Command, v any, text func() error) error {
	w := cmd.OutOrStdout()
	switch a.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		return text()
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatList(w io.Writer, names []string) error {
	for _, n := range names {
		if _, err := fmt.Fprintln(w, n); err != nil {
			return err
		}
	}
	return nil
}

// elementOutput describes one element of an inspected tree.
type elementOutput struct {
	Path       string `json:"path" yaml:"path"`
	Type       string `json:"type" yaml:"type"`
	Kind       string `json:"kind" yaml:"kind"`
	Marker     string `json:"marker,omitempty" yaml:"marker,omitempty"`
	Collection bool   `json:"collection,omitempty" yaml:"collection,omitempty"`
	Unordered  bool   `json:"unordered,omitempty" yaml:"unordered,omitempty"`
}

func describe(tr *model.Tree) []elementOutput {
	out := make([]elementOutput, 0, tr.Len())
	var names []string
	tr.Root().Walk(func(n *tree.Node[*model.Element]) bool {
		e := n.Data()
		if !n.IsRoot() {
			names = append(names, e.Name())
		}
		kind := model.Leaf
		if e.IsNode() {
			kind = model.Node
		}
		out = append(out, elementOutput{
			Path:       strings.Join(names, "."),
			Type:       e.Type().String(),
			Kind:       kind.String(),
			Marker:     e.Marker().String(),
			Collection: e.IsCollection(),
			Unordered:  e.IsNode() && e.Unordered(),
		})
		return true
	}, func(n *tree.Node[*model.Element]) {
		if !n.IsRoot() {
			names = names[:len(names)-1]
		}
	})
	return out
}

// report is the outcome of a validate run.
type report struct {
	File     string   `json:"file" yaml:"file"`
	Valid    bool     `json:"valid" yaml:"valid"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func newReport(file string, err error) report {
	r := report{File: file, Valid: err == nil}
	if err == nil {
		return r
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			r.Problems = append(r.Problems, e.Error())
		}
		return r
	}
	r.Problems = []string{err.Error()}
	return r
}

func formatReport(w io.Writer, r report) error {
	if r.Valid {
		_, err := fmt.Fprintf(w, "%s: valid\n", r.File)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: %d problem(s)\n", r.File, len(r.Problems)); err != nil {
		return err
	}
	for _, p := range r.Problems {
		if _, err := fmt.Fprintf(w, "  - %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

// sumOutput is the outcome of a sum run.
type sumOutput struct {
	Count int     `json:"count" yaml:"count"`
	Int   int64   `json:"int" yaml:"int"`
	Total float64 `json:"total" yaml:"total"`
}

func formatSum(w io.Writer, s sumOutput) error {
	_, err := fmt.Fprintf(w, "leaves: %d\nintegers: %d\ntotal: %g\n", s.Count, s.Int, s.Total)
	return err
}

// statsOutput combines cache statistics and engine metrics.
type statsOutput struct {
	Cache   cache.Stats    `json:"cache" yaml:"cache"`
	Metrics arbor.Snapshot `json:"metrics" yaml:"metrics"`
}

func formatStats(w io.Writer, s statsOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintf(tw, "trees cached\t%d\n", s.Cache.Size)
	fmt.Fprintf(tw, "cache weight\t%d/%d\n", s.Cache.Weight, s.Cache.MaxWeight)
	fmt.Fprintf(tw, "cache hit rate\t%.2f\n", s.Metrics.CacheHitRate)
	fmt.Fprintf(tw, "parses\t%d\n", s.Metrics.ParsesTotal)
	fmt.Fprintf(tw, "parses failed\t%d\n", s.Metrics.ParsesFailed)
	fmt.Fprintf(tw, "avg parse time\t%s\n", time.Duration(s.Metrics.AvgParseTimeNs)) //nolint:gosec // nanoseconds fit int64
	fmt.Fprintf(tw, "traversals\t%d\n", s.Metrics.Traversals)
	return tw.Flush()
}
