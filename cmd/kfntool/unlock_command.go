package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EchoTools/kfntools/internal/config"
	"github.com/EchoTools/kfntools/internal/fileutil"
	"github.com/EchoTools/kfntools/pkg/archive"
	"github.com/EchoTools/kfntools/pkg/kfn"
	"github.com/EchoTools/kfntools/pkg/songini"
	"github.com/EchoTools/kfntools/pkg/unlock"
)

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	var req unlockRequest

	cmd := &cobra.Command{
		Use:   "unlock <file.kfn>",
		Short: "Decrypt a KFN file, reset its publishing rights and drop unknown effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req.Input = args[0]
			if !cmd.Flags().Changed("backup") {
				req.Backup = cfg.Backup
			}
			if !cmd.Flags().Changed("overwrite") {
				req.Overwrite = cfg.Overwrite
			}

			result, err := unlockFile(req, cfg, ctx.loggerFor())
			if err != nil {
				return err
			}
			printUnlockResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "Output path (default: input name with the configured suffix)")
	cmd.Flags().BoolVar(&req.InPlace, "in-place", false, "Replace the input file")
	cmd.Flags().BoolVar(&req.Backup, "backup", true, "Keep a compressed copy of the original when replacing it")
	cmd.Flags().BoolVar(&req.Overwrite, "overwrite", false, "Replace an existing output file")
	return cmd
}

type unlockRequest struct {
	Input     string
	Output    string
	InPlace   bool
	Backup    bool
	Overwrite bool
}

type unlockResult struct {
	Input      string
	Output     string
	BackupPath string
	Subfiles   int
	Report     *unlock.Report
}

// unlockFile decodes, unlocks and re-encodes one container. The destination is
// only written after every step has succeeded.
func unlockFile(req unlockRequest, cfg *config.Config, logger *slog.Logger) (*unlockResult, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, errors.New("input file is required")
	}

	output := req.Output
	switch {
	case req.InPlace && output != "" && !fileutil.SamePath(output, req.Input):
		return nil, errors.New("--in-place and --output are mutually exclusive")
	case req.InPlace:
		output = req.Input
	case output == "":
		output = fileutil.DerivedOutputPath(req.Input, cfg.OutputSuffix)
	}
	inPlace := fileutil.SamePath(output, req.Input)
	if inPlace && !req.InPlace {
		return nil, fmt.Errorf("output %s is the input file (use --in-place to replace it)", output)
	}

	logger = logger.With(slog.String("input", req.Input), slog.String("output", output))

	original, err := os.ReadFile(req.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	container := &kfn.Container{}
	if err := container.UnmarshalBinary(original); err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.Input, err)
	}
	logger.Info("decoded container",
		slog.Int("headers", container.Headers.Len()),
		slog.Int("subfiles", container.SubfileCount()),
	)

	valid := songini.DefaultEffects.With(cfg.ExtraEffectIDs...)
	report, err := unlock.Unlock(container, unlock.WithLogger(logger), unlock.WithValidEffects(valid))
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", req.Input, err)
	}

	data, err := container.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	result := &unlockResult{
		Input:    req.Input,
		Output:   output,
		Subfiles: container.SubfileCount(),
		Report:   report,
	}

	if inPlace && req.Backup {
		backupPath := req.Input + cfg.BackupSuffix
		result.BackupPath = backupPath
		if _, err := os.Stat(backupPath); err == nil {
			logger.Info("keeping existing backup", slog.String("backup", backupPath))
		} else {
			if err := archive.WriteFile(backupPath, original, archive.WithCompressionLevel(cfg.CompressionLevel)); err != nil {
				return nil, fmt.Errorf("write backup: %w", err)
			}
			logger.Info("wrote backup", slog.String("backup", backupPath))
		}
	}

	if err := fileutil.WriteFileAtomic(output, data, 0o644, req.Overwrite || inPlace); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	logger.Info("unlocked container",
		slog.Int("decrypted", report.Decrypted),
		slog.Bool("rights_reset", report.RightsReset),
		slog.Int("effects_removed", report.EffectsRemoved()),
	)
	return result, nil
}

func printUnlockResult(out io.Writer, r *unlockResult) {
	fmt.Fprintf(out, "File unlocked successfully: %s\n", r.Output)
	fmt.Fprintf(out, "  Subfiles:          %d\n", r.Subfiles)
	fmt.Fprintf(out, "  Decrypted:         %d\n", r.Report.Decrypted)
	fmt.Fprintf(out, "  Key cleared:       %s\n", yesNo(r.Report.KeyCleared))
	fmt.Fprintf(out, "  Rights reset:      %s\n", yesNo(r.Report.RightsReset))
	fmt.Fprintf(out, "  Effects removed:   %d\n", r.Report.EffectsRemoved())
	for _, name := range slices.Sorted(maps.Keys(r.Report.RemovedEffects)) {
		fmt.Fprintf(out, "    %s: %s\n", name, strings.Join(r.Report.RemovedEffects[name], ", "))
	}
	if r.BackupPath != "" {
		fmt.Fprintf(out, "  Backup:            %s\n", r.BackupPath)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
