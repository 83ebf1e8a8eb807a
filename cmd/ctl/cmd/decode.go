package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jpfielding/dicomsr.go/pkg/report"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/spf13/cobra"
)

// NewDecodeCmd turns a measurement report into viewer tool state JSON
func NewDecodeCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [report]",
		Short: "decode a TID 1500 report into tool state JSON",
		Long: "Decodes the measurement groups of an SR into annotations keyed by tool type. " +
			"Images given with --images resolve the SOP references; their ids are dicomfile:<path>.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("report")
			if path == "" && len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("report path is required. Use --report flag or provide as argument")
			}
			images, _ := cmd.Flags().GetStringSlice("images")
			out, _ := cmd.Flags().GetString("out")
			pretty, _ := cmd.Flags().GetBool("pretty")

			var doc *sr.Document
			var err error
			if path == "-" {
				doc, err = sr.ParseDocument(os.Stdin)
			} else {
				doc, err = sr.ReadDocument(path)
			}
			if err != nil {
				return fmt.Errorf("reading report: %w", err)
			}
			store, err := loadImages(ctx, images)
			if err != nil {
				return err
			}
			state, err := report.DecodeReport(doc.Dataset, store.SOPMap(), store, nil)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "decoded report", "report", path, "annotations", state.Count(), "tools", state.ToolTypes())

			w, closer, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := writeJSON(w, state, pretty); err != nil {
				closer()
				return err
			}
			return closer()
		},
	}
	f := cmd.Flags()
	f.StringP("report", "r", "", "SR file to decode, - for stdin")
	f.StringSliceP("images", "i", nil, "image files or directories the report references")
	f.StringP("out", "o", "", "output file (default stdout)")
	f.Bool("pretty", false, "indent the JSON output")
	return cmd
}
