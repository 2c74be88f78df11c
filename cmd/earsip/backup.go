package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"earsip/internal/app"
	"earsip/internal/backup"
	"earsip/internal/config"
)

func newBackupCmd(cfg config.Config) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the whole archive to a JSON backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, closeStore, err := app.Open(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			data, err := controller.Backup(operator)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "backup written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", backup.FileName, "output file, - for stdout")
	return cmd
}

func newRestoreCmd(cfg config.Config) *cobra.Command {
	var (
		file string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the whole archive with a JSON backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}

			controller, closeStore, err := app.Open(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			count, err := controller.Restore(operator, data, yes)
			if errors.Is(err, app.ErrConfirmationRequired) {
				return fmt.Errorf("backup holds %d letters and would overwrite the current archive; rerun with --yes", count)
			}
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "restored %d letters\n", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "backup file to restore")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm overwriting the current archive")
	return cmd
}
