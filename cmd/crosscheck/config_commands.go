package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"crosscheck/internal/config"
	"crosscheck/internal/sources"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(newConfigValidateCommand(ctx), newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := sampleTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				if statErr == nil {
					return fmt.Errorf("%s already exists (use --overwrite to replace it)", target)
				}
				if !errors.Is(statErr, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Point [reference] and each [[datasets]] entry at your CSV exports, then run `crosscheck config validate`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func sampleTarget(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag != "" {
		path, err := config.ExpandPath(flag)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return path, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return path, nil
}

// newConfigValidateCommand loads every configured source the way a run
// would, so missing files and unmapped columns surface before matching.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and load every source file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configSeen {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			if err := cfg.ValidateSources(); err != nil {
				return fmt.Errorf("sources: %w", err)
			}

			refs, err := sources.LoadReference(cmd.Context(), cfg.Reference)
			if err != nil {
				return fmt.Errorf("reference: %w", err)
			}
			fmt.Fprintf(out, "Reference: %d records from %s\n", len(refs), cfg.Reference.Path)

			tbl := newTable("Dataset", "Rows", "Kept", "Not fatal", "Not subject", "Before min", "Duplicates").
				alignRight(2, 3, 4, 5, 6, 7)
			for _, dsCfg := range cfg.Datasets {
				_, stats, err := sources.LoadDataset(cmd.Context(), dsCfg)
				if err != nil {
					return fmt.Errorf("dataset %s: %w", dsCfg.ID, err)
				}
				tbl.add(dsCfg.ID, stats.Rows, stats.Kept, stats.NotFatal, stats.NotSubject, stats.BeforeMin, stats.Duplicates)
			}
			if err := tbl.write(out); err != nil {
				return err
			}
			fmt.Fprintf(out, "Datasets: %d\n", len(cfg.Datasets))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
