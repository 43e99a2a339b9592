package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cadenza-ai/cadenza/internal/config"
	"github.com/cadenza-ai/cadenza/pkg/check"
)

var rootCmd = &cobra.Command{
	Use:   "cadenza",
	Short: "dry-run a training cadence to preview evaluation and checkpoint triggers",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRoot(); err != nil {
			log.Error(fmt.Sprintf("%+v", err))
			os.Exit(1)
		}
	},
}

func runRoot() error {
	conf, err := initializeConfig()
	if err != nil {
		return err
	}

	printable, err := conf.Printable()
	if err != nil {
		return err
	}
	log.Infof("cadenza configuration: %s", printable)

	return runDry(conf)
}

// initializeConfig returns the validated configuration populated from the
// config file, environment variables, and command line flags, and applies
// the global logging options.
func initializeConfig() (*config.Config, error) {
	// Fetch an initial config to get the config file path and read its
	// settings into viper.
	initialConfig, err := getConfig(v.AllSettings())
	if err != nil {
		return nil, err
	}

	bs, err := readConfigFile(initialConfig.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err = mergeConfigBytesIntoViper(bs); err != nil {
		return nil, err
	}

	conf, err := getConfig(v.AllSettings())
	if err != nil {
		return nil, err
	}

	if err := check.Validate(conf); err != nil {
		return nil, err
	}

	conf.Resolve()
	return conf, nil
}

func readConfigFile(configPath string) ([]byte, error) {
	if configPath == "" {
		return nil, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, errors.Wrap(err, "error finding configuration file")
	}
	bs, err := os.ReadFile(configPath) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "error reading configuration file")
	}
	return bs, nil
}

func mergeConfigBytesIntoViper(bs []byte) error {
	var configMap map[string]interface{}
	if err := yaml.Unmarshal(bs, &configMap); err != nil {
		return errors.Wrap(err, "error unmarshaling yaml configuration file")
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return errors.Wrap(err, "error merging configuration into viper")
	}
	return nil
}

func getConfig(configMap map[string]interface{}) (*config.Config, error) {
	bs, err := json.Marshal(configMap)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal configuration map")
	}

	conf := config.DefaultConfig()
	if err := json.Unmarshal(bs, conf); err != nil {
		return nil, errors.Wrap(err, "cannot parse configuration")
	}
	return conf, nil
}
