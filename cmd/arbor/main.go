// Command arbor inspects and processes the sample types compiled into it.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/config"
	"github.com/gofhir/arbor/engine"
	"github.com/gofhir/arbor/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// app holds the state shared by every command.
type app struct {
	configPaths []string
	verbose     bool
	format      string
	backend     string

	log *logrus.Logger
	eng *engine.Engine
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Inspect element trees and run visitors over sample data",
		Long:          "arbor parses struct types into element trees and walks YAML instances of them with the built-in visitors.",
		Version:       arbor.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringSliceVar(&a.configPaths, "config", nil, "config file(s); later files override earlier ones")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.format, "format", formatText, "output format: text|json|yaml")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "accessor backend: auto|reflect|fast (overrides config)")

	root.AddCommand(
		newTypesCmd(a),
		newInspectCmd(a),
		newExportCmd(a),
		newValidateCmd(a),
		newSumCmd(a),
		newStatsCmd(a),
	)
	return root
}

// setup loads the configuration and creates the engine.
func (a *app) setup(stderr io.Writer) error {
	if err := validateFormat(a.format); err != nil {
		return err
	}

	cfg := config.Default()
	if len(a.configPaths) > 0 {
		loaded, err := config.Load(a.configPaths...)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logOpts := cfg.LogOptions()
	logOpts.Verbose = logOpts.Verbose || a.verbose
	logOpts.Output = stderr
	a.log = logrus.New()
	logger.Configure(a.log, logOpts)

	opts := append(cfg.Options(), arbor.WithLogger(a.log))
	if a.backend != "" {
		b := arbor.Backend(a.backend)
		if !b.IsValid() {
			return errors.Errorf("unknown backend %q", a.backend)
		}
		opts = append(opts, arbor.WithBackend(b))
	}

	eng, err := engine.New(opts...)
	if err != nil {
		return err
	}
	a.eng = eng
	return nil
}
