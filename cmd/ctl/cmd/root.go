package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/config"
	"github.com/jpfielding/dicomsr.go/pkg/logging"
	"github.com/jpfielding/dicomsr.go/pkg/metadata"
	"github.com/spf13/cobra"
)

// settings is filled in by the root command before any sub command runs
type settings struct {
	cfg     *config.Config
	logFile io.Closer
}

// closeLog releases the rotating log file, if one was opened
func (s *settings) closeLog() error {
	if s.logFile == nil {
		return nil
	}
	err := s.logFile.Close()
	s.logFile = nil
	return err
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	s := &settings{cfg: config.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "srctl",
		Short: "a CLI to convert DICOM SR measurement reports and viewer annotations",
		Long:  "srctl decodes TID 1500 measurement reports into viewer tool state, encodes tool state back into reports, and inspects report content.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				cfg.Log.Level = f.Value.String()
			}
			if f := cmd.Flags().Lookup("log-file"); f != nil && f.Changed {
				cfg.Log.File.Path = f.Value.String()
			}
			s.cfg = cfg

			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stderr
			if cfg.Log.File.Path != "" {
				f := logging.RotatingFile(cfg.Log.File)
				s.logFile = f
				w = io.MultiWriter(os.Stderr, f)
			}
			slog.SetDefault(logging.Logger(w, cfg.Log.JSON, level))
			if err != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", cfg.Log.Level, "error", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.closeLog()
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewDecodeCmd(ctx, s),
		NewEncodeCmd(ctx, s),
		NewInspectCmd(ctx),
		NewRegistryCmd(ctx),
		NewConfigCmd(ctx, s),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "also write logs to this file, rotated by size")
	pf.StringP("config", "c", "", "config file (default ./srctl.yaml or <user config dir>/srctl/srctl.yaml)")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// NewConfigCmd prints the effective config, or writes it with --out
func NewConfigCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "show or save the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return writeJSON(cmd.OutOrStdout(), s.cfg, true)
			}
			if err := config.SaveConfig(out, s.cfg); err != nil {
				return err
			}
			slog.InfoContext(ctx, "saved config", "path", out)
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "write the config as YAML to this path")
	return cmd
}

// loadImages reads the metadata of the images a report references
func loadImages(ctx context.Context, paths []string) (*metadata.Store, error) {
	store := metadata.NewStore()
	if len(paths) == 0 {
		return store, nil
	}
	ids, err := store.LoadFiles(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}
	slog.InfoContext(ctx, "loaded images", "count", len(ids))
	return store, nil
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// output opens path for writing, stdout for "" or "-"
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
