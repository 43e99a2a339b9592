package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cadenza-ai/cadenza/internal/config"
	"github.com/cadenza-ai/cadenza/version"
)

var v *viper.Viper

// viperKeyDelimiter marks nested values in the configuration. ".." instead of
// the default "." so option names may themselves contain dots.
const viperKeyDelimiter = ".."

//nolint:gochecknoinit
func init() {
	// The version of rootCmd is set in init() rather than when rootCmd is
	// initialized, because link-time variable assignments are not applied
	// when package-scoped variables are initialized.
	rootCmd.Version = version.Version
	registerConfig()
}

type configKey []string

func (c configKey) EnvName() string {
	return "CADENZA_" + strings.ReplaceAll(strings.ToUpper(c.FlagName()), "-", "_")
}

func (c configKey) AccessPath() string {
	return strings.ReplaceAll(strings.Join(c, viperKeyDelimiter), "-", "_")
}

func (c configKey) FlagName() string {
	return strings.Join(c, "-")
}

func registerString(flags *pflag.FlagSet, name configKey, value string, usage string) {
	flags.String(name.FlagName(), value, usage)
	_ = v.BindEnv(name.AccessPath(), name.EnvName())
	_ = v.BindPFlag(name.AccessPath(), flags.Lookup(name.FlagName()))
	v.SetDefault(name.AccessPath(), value)
}

func registerBool(flags *pflag.FlagSet, name configKey, value bool, usage string) {
	flags.Bool(name.FlagName(), value, usage)
	_ = v.BindEnv(name.AccessPath(), name.EnvName())
	_ = v.BindPFlag(name.AccessPath(), flags.Lookup(name.FlagName()))
	v.SetDefault(name.AccessPath(), value)
}

func registerInt(flags *pflag.FlagSet, name configKey, value int, usage string) {
	flags.Int(name.FlagName(), value, usage)
	_ = v.BindEnv(name.AccessPath(), name.EnvName())
	_ = v.BindPFlag(name.AccessPath(), flags.Lookup(name.FlagName()))
	v.SetDefault(name.AccessPath(), value)
}

func registerFloat(flags *pflag.FlagSet, name configKey, value float64, usage string) {
	flags.Float64(name.FlagName(), value, usage)
	_ = v.BindEnv(name.AccessPath(), name.EnvName())
	_ = v.BindPFlag(name.AccessPath(), flags.Lookup(name.FlagName()))
	v.SetDefault(name.AccessPath(), value)
}

func registerConfig() {
	v = viper.NewWithOptions(viper.KeyDelimiter(viperKeyDelimiter))
	v.SetTypeByDefaultValue(true)

	defaults := config.DefaultConfig()

	flags := rootCmd.Flags()
	name := func(components ...string) configKey { return components }

	registerString(flags, name("config-file"),
		defaults.ConfigFile, "location of config file")

	registerString(flags, name("log", "level"),
		defaults.Log.Level, "choose logging level from [trace, debug, info, warn, error, fatal]")
	registerBool(flags, name("log", "color"),
		defaults.Log.Color, "output logs in color")

	registerString(flags, name("cadence", "counter-unit"),
		string(defaults.Cadence.CounterUnit), "progress unit driving evaluation (sample, batch, epoch)")
	registerFloat(flags, name("cadence", "evaluation-freq"),
		defaults.Cadence.EvaluationFreq, "progress between evaluations, in counter units")
	registerBool(flags, name("cadence", "checkpointing"),
		defaults.Cadence.Checkpointing, "enable checkpointing")
	registerBool(flags, name("cadence", "verbose"),
		defaults.Cadence.Verbose, "log informational cadence messages")

	registerInt(flags, name("cadence", "checkpointer-config", "checkpoint-freq"),
		defaults.Cadence.Checkpointer.Freq, "evaluations between checkpoints")
	registerString(flags, name("cadence", "checkpointer-config", "checkpoint-path"),
		defaults.Cadence.Checkpointer.Path, "base directory for checkpoints")

	registerString(flags, name("cadence", "writer-config", "writer"),
		"none", "metric writer backend (none, json, tensorboard)")
	registerString(flags, name("cadence", "writer-config", "log-dir"),
		"", "base directory for metric logs")

	registerInt(flags, name("schedule", "total-batches"),
		defaults.Schedule.TotalBatches, "number of batches the dry run trains for")
	registerInt(flags, name("schedule", "batch-size"),
		defaults.Schedule.BatchSize, "samples per batch")
	registerFloat(flags, name("schedule", "batches-per-epoch"),
		defaults.Schedule.BatchesPerEpoch, "batches per epoch, possibly fractional")
	registerInt(flags, name("schedule", "resumed-batches"),
		defaults.Schedule.ResumedBatches, "batches already completed before the run")
	registerFloat(flags, name("schedule", "resumed-epochs"),
		defaults.Schedule.ResumedEpochs, "epochs already completed before the run")
}
