// Package logger configures the logrus logger used across arbor.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogOptions selects the level and format of the standard logger.
type LogOptions struct {
	// Verbose enables debug logging.
	Verbose bool
	// Trace enables trace logging, which includes one line per traversal.
	Trace bool
	// DisableColor disables colored level names.
	DisableColor bool
	// JSON switches to logrus' JSON formatter.
	JSON bool
	// Output replaces stderr when set.
	Output io.Writer
}

// Init configures the logrus standard logger.
func Init(options LogOptions) {
	Configure(logrus.StandardLogger(), options)
}

// Configure applies options to log.
func Configure(log *logrus.Logger, options LogOptions) {
	switch {
	case options.Trace:
		log.SetLevel(logrus.TraceLevel)
	case options.Verbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if options.Output != nil {
		log.SetOutput(options.Output)
	}

	if options.JSON {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: defaultTimestampFormat})
		return
	}
	log.SetFormatter(&Formatter{DisableColor: options.DisableColor})
}
