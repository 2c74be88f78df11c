package main

import (
	"github.com/spf13/cobra"

	"earsip/internal/config"
	"earsip/internal/domain"
)

// operator is the identity of commands run on the host. Access to the data
// directory already implies administrator rights.
var operator = domain.User{Username: "cli", FullName: "Local operator", Role: domain.RoleAdministrator}

func newRootCmd(cfg config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:           "earsip",
		Short:         "e-Arsip LPSE NTB letter archive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newServeCmd(cfg),
		newListCmd(cfg, &jsonOutput),
		newStatsCmd(cfg, &jsonOutput),
		newBackupCmd(cfg),
		newRestoreCmd(cfg),
	)

	return cmd
}
