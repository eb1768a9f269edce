package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EchoTools/kfntools/pkg/kfn"
	"github.com/EchoTools/kfntools/pkg/songini"
	"github.com/EchoTools/kfntools/pkg/unlock"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var unlockFirst bool

	cmd := &cobra.Command{
		Use:   "extract <file.kfn>",
		Short: "Write every subfile of a KFN file to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir == "" {
				return fmt.Errorf("output directory is required")
			}

			c, err := kfn.ReadFile(args[0])
			if err != nil {
				return err
			}
			logger := ctx.loggerFor()

			if unlockFirst {
				valid := songini.DefaultEffects.With(cfg.ExtraEffectIDs...)
				if _, err := unlock.Unlock(c, unlock.WithLogger(logger), unlock.WithValidEffects(valid)); err != nil {
					return fmt.Errorf("unlock: %w", err)
				}
			}

			written, err := extractSubfiles(c, outputDir, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d subfiles to %s\n", written, outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory")
	cmd.Flags().BoolVar(&unlockFirst, "unlock", false, "Decrypt and clean subfiles before writing them")
	return cmd
}

// extractSubfiles writes each payload to dir. Encrypted payloads are written as stored.
func extractSubfiles(c *kfn.Container, dir string, logger *slog.Logger) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	used := make(map[string]struct{}, c.SubfileCount())
	for i, sf := range c.Subfiles {
		name := safeFileName(sf.Name, i)
		if _, dup := used[name]; dup {
			name = fmt.Sprintf("%03d-%s", i, name)
		}
		used[name] = struct{}{}

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, sf.Data, 0o644); err != nil {
			return i, fmt.Errorf("write file %s: %w", path, err)
		}
		logger.Debug("extracted subfile",
			slog.String("path", path),
			slog.String("type", sf.Type.String()),
			slog.Bool("encrypted", sf.Encrypted),
		)
	}
	return c.SubfileCount(), nil
}
