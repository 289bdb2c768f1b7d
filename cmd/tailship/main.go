package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tailship/tailship/pkg/csconfig"
)

const defaultConfigPath = "/etc/tailship/config.yaml"

type cliRoot struct {
	configFile string
	logLevel   logLevelFlags
}

// loadConfig reads the configuration file. A missing file at the default
// location is not an error.
func (cli *cliRoot) loadConfig(cmd *cobra.Command) (*csconfig.Config, error) {
	var (
		cfg *csconfig.Config
		err error
	)

	if _, statErr := os.Stat(cli.configFile); os.IsNotExist(statErr) && !cmd.Flags().Changed("config") {
		log.Debugf("no configuration file at %s, using defaults", cli.configFile)

		cfg = csconfig.NewDefaultConfig()
	} else if cfg, err = csconfig.NewConfig(cli.configFile); err != nil {
		return nil, err
	}

	if level, ok := cli.logLevel.level(); ok {
		cfg.Common.LogLevel = &level
	}

	return cfg, nil
}

func (cli *cliRoot) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "tailship",
		Short:             "tailship follows log files and ships them to a collector",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := cli.logLevel.level(); ok {
				log.SetLevel(level)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.configFile, "config", "c", defaultConfigPath, "path to the configuration file")
	cli.logLevel.register(flags)

	cmd.AddCommand(newCLIMonitor(cli).NewCommand())
	cmd.AddCommand(newCLIState(cli).NewCommand())
	cmd.AddCommand(newCLIVersion().NewCommand())

	return cmd
}

func main() {
	// set the formatter asap and worry about level later
	log.SetFormatter(&log.TextFormatter{TimestampFormat: "02-01-2006 15:04:05", FullTimestamp: true})

	cmd := (&cliRoot{}).NewCommand()

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
