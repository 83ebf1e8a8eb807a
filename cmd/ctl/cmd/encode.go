package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/report"
	"github.com/spf13/cobra"
)

// NewEncodeCmd writes viewer tool state JSON as a measurement report
func NewEncodeCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode tool state JSON into a TID 1500 report",
		Long: "Encodes annotations keyed by tool type into an SR. Annotations reference images " +
			"by id; load the images with --images so that ids are dicomfile:<path>.",
		RunE: func(cmd *cobra.Command, args []string) error {
			statePath, _ := cmd.Flags().GetString("state")
			images, _ := cmd.Flags().GetStringSlice("images")
			out, _ := cmd.Flags().GetString("out")
			if statePath == "" || out == "" {
				return fmt.Errorf("--state and --out are required")
			}

			data, err := os.ReadFile(statePath)
			if err != nil {
				return err
			}
			var state annotation.ToolState
			if err := json.Unmarshal(data, &state); err != nil {
				return fmt.Errorf("parsing tool state: %w", err)
			}
			store, err := loadImages(ctx, images)
			if err != nil {
				return err
			}

			opts := s.cfg.EncodeOptions()
			if f := cmd.Flags().Lookup("3d"); f.Changed {
				opts.Use3D, _ = cmd.Flags().GetBool("3d")
			}
			if f := cmd.Flags().Lookup("observer"); f.Changed {
				opts.Report.PersonObserverName = f.Value.String()
				opts.Report.DeviceObserverUID = ""
			}
			doc, err := report.EncodeReport(state, store, nil, opts)
			if err != nil {
				return err
			}
			for _, w := range dicom.ValidateSR(doc.Dataset).Warnings {
				slog.WarnContext(ctx, "report validation", "warning", w.Error())
			}
			n, err := doc.Write(out)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "wrote report", "path", out, "bytes", n, "sopInstanceUID", doc.SOPInstanceUID())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringP("state", "s", "", "tool state JSON file")
	f.StringSliceP("images", "i", nil, "image files or directories the annotations reference")
	f.StringP("out", "o", "", "SR file to write")
	f.Bool("3d", false, "write SCOORD3D for images with a frame of reference")
	f.String("observer", "", "person observer name")
	return cmd
}
