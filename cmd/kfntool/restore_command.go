package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EchoTools/kfntools/internal/fileutil"
	"github.com/EchoTools/kfntools/pkg/archive"
	"github.com/EchoTools/kfntools/pkg/kfn"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var output string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Restore the original KFN file from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := output
			if target == "" {
				target = strings.TrimSuffix(args[0], cfg.BackupSuffix)
				if target == args[0] {
					return fmt.Errorf("cannot derive output from %s; pass --output", args[0])
				}
			}

			if err := restoreBackup(args[0], target, overwrite); err != nil {
				return err
			}
			ctx.loggerFor().Info("restored backup", "backup", args[0], "output", target)
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination (default: backup path without the backup suffix)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func restoreBackup(backupPath, target string, overwrite bool) error {
	data, err := archive.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	// Refuse to restore something that is not a container.
	if err := (&kfn.Container{}).UnmarshalBinary(data); err != nil {
		return fmt.Errorf("backup does not hold a KFN file: %w", err)
	}

	if err := fileutil.WriteFileAtomic(target, data, 0o644, overwrite); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
