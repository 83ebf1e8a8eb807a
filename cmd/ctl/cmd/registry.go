package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/jpfielding/dicomsr.go/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewRegistryCmd lists the tool adapters and the tracking identifiers they accept
func NewRegistryCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "list the tool adapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := adapter.Default()
			if err != nil {
				return err
			}
			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				type entry struct {
					ToolType           string   `json:"toolType"`
					UtilityType        string   `json:"utilityType"`
					ParentType         string   `json:"parentType,omitempty"`
					Kind               string   `json:"kind"`
					TrackingIdentifier string   `json:"trackingIdentifier"`
					Aliases            []string `json:"aliases"`
				}
				var out []entry
				for _, r := range registry.Registrations() {
					out = append(out, entry{r.ToolType, r.UtilityType, r.ParentType, r.Kind.String(), r.TrackingIdentifier, r.Aliases()})
				}
				return writeJSON(cmd.OutOrStdout(), out, true)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TOOL\tKIND\tIDENTIFIER\tALIASES")
			for _, r := range registry.Registrations() {
				aliases := slices.DeleteFunc(r.Aliases(), func(a string) bool { return a == r.TrackingIdentifier })
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ToolType, r.Kind, r.TrackingIdentifier, strings.Join(aliases, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("format", "text", "output format (text|json)")
	return cmd
}
