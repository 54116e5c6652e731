package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel   = "info"
	configPath = ""
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func loadConfig() error {
	setDefaults()
	if configPath == "" {
		return nil
	}
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %v", configPath, err)
	}
	logrus.Debugf("configuration loaded from %s", viper.ConfigFileUsed())
	return nil
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jvcurve",
		Short: "J-V characterization of optoelectronic devices with a Keithley 2612B",
		Long: `jvcurve drives a dual-channel Keithley 2612B source-measure unit over VISA:
channel A sweeps the bias on the device under test while channel B samples the
current of a calibrated photodiode. The captured curve is turned into
device-performance metrics and written to a CSV file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			return loadConfig()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&logLevel, "log-level", "l", logLevel, "log level (trace, debug, info, warn, error)")
	pf.StringVarP(&configPath, "config", "c", configPath, "YAML file with device parameters and sweep defaults")

	cmd.AddCommand(
		NewJVCommand(),
		NewLEDCommand(),
		NewPVCommand(),
	)
	return cmd
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
