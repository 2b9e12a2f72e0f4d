package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VNACAL"

// options are the process settings. Each flag can also be set from the
// environment, e.g. VNACAL_LOG_LEVEL=debug.
type options struct {
	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MetricsFile string `mapstructure:"metrics-file"`
	EventsFile  string `mapstructure:"events-file"`
}

func newOptions() *options {
	return &options{LogLevel: "info", LogFormat: "text"}
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.LogLevel, "log-level", "l", o.LogLevel, "log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "log format (text, json)")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "write run metrics to this node-exporter textfile")
	fs.StringVar(&o.EventsFile, "events-file", "", "append calibration events to this JSON-lines file")
}

// load merges the environment into the flags. A flag given on the command
// line wins over the environment.
func (o *options) load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return v.Unmarshal(o)
}
