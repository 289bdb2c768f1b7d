package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crowdsecurity/go-cs-lib/version"
)

type cliVersion struct{}

func newCLIVersion() *cliVersion {
	return &cliVersion{}
}

func (cliVersion) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "version",
		Short:             "Display version",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.FullString())
		},
	}

	return cmd
}
