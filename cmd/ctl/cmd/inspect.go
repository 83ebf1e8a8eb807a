package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jpfielding/dicomsr.go/pkg/adapter"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"github.com/jpfielding/dicomsr.go/pkg/sr"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect cobra command
func NewInspectCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [report]",
		Short: "Inspect the measurement groups of an SR",
		Long:  "Parses an SR and displays its document attributes, evidence, validation findings and every measurement group with the tool it resolves to.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}
			doc, err := sr.ReadDocument(filePath)
			if err != nil {
				return fmt.Errorf("parse error: %w", err)
			}
			items, err := doc.MeasurementGroups()
			if err != nil {
				return err
			}
			groups := make([]*sr.MeasurementGroup, 0, len(items))
			for i, item := range items {
				g, err := sr.ParseMeasurementGroup(item)
				if err != nil {
					return fmt.Errorf("measurement group %d: %w", i, err)
				}
				groups = append(groups, g)
			}

			switch format, _ := cmd.Flags().GetString("format"); format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), groups, true)
			default:
				registry, err := adapter.Default()
				if err != nil {
					return err
				}
				return runInspect(cmd.OutOrStdout(), doc, groups, registry)
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "SR file path to inspect")
	pf.String("format", "text", "output format (text|json)")
	return cmd
}

func runInspect(w io.Writer, doc *sr.Document, groups []*sr.MeasurementGroup, registry *adapter.Registry) error {
	fmt.Fprintln(w, "=== Document ===")
	fmt.Fprintf(w, "SOPClassUID: %s\n", dicom.GetSOPClassUID(doc.Dataset))
	fmt.Fprintf(w, "SOPInstanceUID: %s\n", doc.SOPInstanceUID())
	fmt.Fprintf(w, "StudyInstanceUID: %s\n", doc.StudyInstanceUID())
	fmt.Fprintf(w, "Template: %s\n", doc.TemplateIdentifier())
	fmt.Fprintf(w, "Title: %s\n", doc.Title())

	evidence := doc.Evidence()
	fmt.Fprintf(w, "\n=== Evidence (%d instances) ===\n", len(evidence))
	for _, sop := range sortedKeys(evidence) {
		fmt.Fprintf(w, "%s  series %s\n", sop, evidence[sop])
	}

	result := dicom.ValidateSR(doc.Dataset)
	fmt.Fprintf(w, "\n=== Validation (valid: %v) ===\n", result.IsValid())
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", e.Error())
	}
	for _, e := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", e.Error())
	}

	fmt.Fprintf(w, "\n=== Measurement Groups (%d) ===\n", len(groups))
	for i, g := range groups {
		tool := "unknown"
		if r, ok := registry.Resolve(g.TrackingIdentifier); ok {
			tool = r.String()
		}
		fmt.Fprintf(w, "\n--- Group %d ---\n", i)
		fmt.Fprintf(w, "TrackingIdentifier: %s -> %s\n", g.TrackingIdentifier, tool)
		fmt.Fprintf(w, "TrackingUniqueIdentifier: %s\n", g.TrackingUniqueIdentifier)
		for _, c := range g.Codes {
			fmt.Fprintf(w, "%s: %s\n", c.ConceptName.Meaning, c.Value)
		}
		for _, n := range g.Nums {
			fmt.Fprintf(w, "NUM %s", n.ConceptName.Meaning)
			if n.Value != nil {
				fmt.Fprintf(w, " = %g", *n.Value)
				if n.Unit != nil {
					fmt.Fprintf(w, " %s", sr.UnitLabel(*n.Unit))
				}
			}
			fmt.Fprintln(w)
			if c := n.Coordinate; c != nil {
				fmt.Fprintf(w, "  %s %s points=%d%s\n", coordinateKind(c), c.GraphicType, c.NumPoints(), coordinateRef(c))
			}
		}
	}
	return nil
}

func coordinateKind(c *sr.SpatialCoordinate) string {
	if c.Is3D {
		return "SCOORD3D"
	}
	return "SCOORD"
}

func coordinateRef(c *sr.SpatialCoordinate) string {
	var parts []string
	if c.FrameOfReferenceUID != "" {
		parts = append(parts, "for="+c.FrameOfReferenceUID)
	}
	if ref := c.ReferencedSOP; ref != nil {
		parts = append(parts, "sop="+ref.ReferencedSOPInstanceUID)
		if ref.ReferencedFrameNumber > 0 {
			parts = append(parts, fmt.Sprintf("frame=%d", ref.ReferencedFrameNumber))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
