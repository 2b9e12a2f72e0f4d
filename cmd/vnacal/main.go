package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/vnacal/pkg/calibration"
	"github.com/charlie0129/vnacal/pkg/config"
	"github.com/charlie0129/vnacal/pkg/engine"
	"github.com/charlie0129/vnacal/pkg/events"
	"github.com/charlie0129/vnacal/pkg/metrics"
)

var (
	passMarker = color.New(color.FgGreen, color.Bold)
	failMarker = color.New(color.FgRed, color.Bold)
)

func setupLogger(o *options) error {
	level, err := logrus.ParseLevel(o.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)

	switch o.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{})
		if term.IsTerminal(int(os.Stderr.Fd())) {
			logrus.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: time.Kitchen,
			})
		}
	default:
		return fmt.Errorf("invalid log format %q, must be text or json", o.LogFormat)
	}

	return nil
}

func handleCmdError(err error) {
	var (
		cerr *config.Error
		uerr *calibration.UnknownMethodError
		verr *calibration.ValidationError
		aerr *calibration.AlgorithmError
	)
	switch {
	case errors.As(err, &cerr):
		if cerr.Key != "" {
			fmt.Fprintf(os.Stderr, "Check the %q entry of the calibration description.\n", cerr.Key)
		} else {
			fmt.Fprintln(os.Stderr, "Is the calibration description readable and well formed?")
		}
	case errors.As(err, &uerr):
		fmt.Fprintf(os.Stderr, "Supported methods: %v\n", engine.DefaultRegistry().Names())
	case errors.As(err, &verr):
		fmt.Fprintln(os.Stderr, "A required standard is missing. Check the snp paths of the calibration description.")
	case errors.As(err, &aerr):
		fmt.Fprintf(os.Stderr, "The %s solver rejected the measurements.\n", aerr.Method)
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		failMarker.Println("Fail")
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	o := newOptions()

	cmd := &cobra.Command{
		Use:   "vnacal <config-file>",
		Short: "vnacal runs a VNA calibration described by a configuration file",
		Long: `vnacal runs a VNA calibration described by a configuration file.

The description selects the method (sk_sol, sk_solt, sk_lrrm or umtrl), the
measured and model standards and where to write the solved error terms.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.load(cmd); err != nil {
				return err
			}
			return setupLogger(o)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, a := range os.Args {
				logrus.Debugf("Args[%d]:%s", i, a)
			}
			if err := runCalibration(o, args[0]); err != nil {
				return err
			}
			passMarker.Fprintln(cmd.OutOrStdout(), "Pass")
			return nil
		},
	}

	o.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewVersionCommand(),
	)

	return cmd
}

func runCalibration(o *options, path string) error {
	hub := events.NewEventHub()
	if o.EventsFile != "" {
		journal, err := events.OpenJournal(o.EventsFile)
		if err != nil {
			return err
		}
		defer func(j *events.Journal) {
			err := j.Close()
			if err != nil {
				logrus.Warnf("failed to close file %s", o.EventsFile)
			}
		}(journal)
		hub.AddSink(journal)
	}

	var rec *metrics.Recorder
	if o.MetricsFile != "" {
		rec = metrics.NewRecorder()
	}

	res, err := engine.New(engine.WithEventHub(hub), engine.WithRecorder(rec)).Run(path)

	if rec != nil {
		if werr := rec.WriteToTextfile(o.MetricsFile); werr != nil {
			logrus.WithError(werr).Warn("failed to write metrics")
		}
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"runID":  res.RunID,
		"method": res.Method,
	}).Debug("calibration done")
	return nil
}
