package main

import (
	"os"
	"reflect"
	"sort"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/visitors"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the sample types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(catalog))
			for name := range catalog {
				names = append(names, name)
			}
			sort.Strings(names)
			return a.print(cmd, names, func() error { return formatList(cmd.OutOrStdout(), names) })
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <type>",
		Short: "Print the element tree of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lookup(args[0])
			if err != nil {
				return err
			}
			tr, err := a.eng.Tree(t)
			if err != nil {
				return err
			}
			return a.print(cmd, describe(tr), func() error {
				_, err := cmd.OutOrStdout().Write([]byte(tr.String()))
				return err
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var markers []string
	cmd := &cobra.Command{
		Use:   "export <type> <file>",
		Short: "Render the marked members of a YAML instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := load(args[0], args[1])
			if err != nil {
				return err
			}
			out, err := a.eng.Export(inst, toMarkers(markers)...)
			if err != nil {
				return err
			}
			return a.print(cmd, out, func() error { return writeYAML(cmd.OutOrStdout(), out) })
		},
	}
	cmd.Flags().StringSliceVar(&markers, "marker", nil, "markers to export (default: all)")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var markers []string
	cmd := &cobra.Command{
		Use:   "validate <type> <file>",
		Short: "Report required members missing from a YAML instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := load(args[0], args[1])
			if err != nil {
				return err
			}
			verr := a.eng.Validate(inst, toMarkers(markers)...)
			report := newReport(args[1], verr)
			if err := a.print(cmd, report, func() error { return formatReport(cmd.OutOrStdout(), report) }); err != nil {
				return err
			}
			if !report.Valid {
				return errors.Errorf("%s: %d problem(s)", args[1], len(report.Problems))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&markers, "marker", nil, "markers holding required members (default: required)")
	return cmd
}

func newSumCmd(a *app) *cobra.Command {
	var markers []string
	cmd := &cobra.Command{
		Use:   "sum <type> <file>",
		Short: "Add up the numeric members of a YAML instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := load(args[0], args[1])
			if err != nil {
				return err
			}
			s := visitors.NewSummer(toMarkers(markers)...)
			if err := a.eng.PreOrder(inst, s); err != nil {
				return err
			}
			total := sumOutput{Count: s.Count(), Int: s.Int(), Total: s.Float()}
			return a.print(cmd, total, func() error { return formatSum(cmd.OutOrStdout(), total) })
		},
	}
	cmd.Flags().StringSliceVar(&markers, "marker", []string{"sum"}, "markers to add up")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Parse every sample type and print engine metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range catalog {
				if _, err := a.eng.Tree(t); err != nil {
					return err
				}
			}
			st := statsOutput{Cache: a.eng.CacheStats(), Metrics: a.eng.Metrics().Snapshot()}
			return a.print(cmd, st, func() error { return formatStats(cmd.OutOrStdout(), st) })
		},
	}
}

// lookup resolves a sample type name.
func lookup(name string) (reflect.Type, error) {
	t, ok := catalog[name]
	if !ok {
		return nil, errors.Errorf("unknown type %q (see 'arbor types')", name)
	}
	return t, nil
}

// load decodes a YAML file into a new instance of the named type.
func load(name, path string) (any, error) {
	t, err := lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	inst := reflect.New(t)
	if err := yaml.Unmarshal(data, inst.Interface()); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return inst.Interface(), nil
}

func toMarkers(names []string) []arbor.Marker {
	out := make([]arbor.Marker, 0, len(names))
	for _, n := range names {
		out = append(out, arbor.ParseMarkers(n)...)
	}
	return out
}
