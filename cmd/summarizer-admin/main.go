package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/defaults"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/docprompts"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/resource"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/promptfile"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "summarizer-admin",
		Short:         "Summarizer configuration and assignment API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(sectionsCmd())
	root.AddCommand(resourcesCmd())
	root.AddCommand(defaultsCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "Print the default section hierarchy in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hierarchy.Default()
			if err != nil {
				return err
			}
			printSections(cmd.OutOrStdout(), h.Flatten())
			return nil
		},
	}
}

func printSections(w io.Writer, sections []hierarchy.FlatSection) {
	depth := map[hierarchy.Level]int{
		hierarchy.LevelParent:     0,
		hierarchy.LevelChild:      1,
		hierarchy.LevelGrandchild: 2,
	}
	for _, s := range sections {
		fmt.Fprintf(w, "%s%-*s %s\n", strings.Repeat("  ", depth[s.Level]), 32-2*depth[s.Level], s.Key, s.Name)
	}
}

func resourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Print the resource catalog of an EHR",
		RunE: func(cmd *cobra.Command, args []string) error {
			ehr, _ := cmd.Flags().GetString("ehr")
			reg, err := resource.Default()
			if err != nil {
				return err
			}
			if ehr == "" {
				for _, e := range reg.EHRs() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", e.ID, e.Name)
				}
				return nil
			}
			if !reg.HasEHR(ehr) {
				return fmt.Errorf("%w: %s", resource.ErrUnknownEHR, ehr)
			}
			printResources(cmd.OutOrStdout(), reg.ResourcesFor(ehr))
			return nil
		},
	}
	cmd.Flags().String("ehr", "", "EHR vendor id (lists vendors when empty)")
	return cmd
}

func printResources(w io.Writer, defs []resource.Definition) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tFORMAT\tEDITABLE\tADVANCED")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, resource.FormatLabel(d), orDash(d.FileFormat),
			filterTypes(d.Filters.Editable), filterTypes(d.Filters.Advanced))
	}
	tw.Flush()
}

func filterTypes(filters []resource.Filter) string {
	if len(filters) == 0 {
		return "-"
	}
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = string(f.Type)
	}
	return strings.Join(names, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func defaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the form state produced by selecting a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			ehr, _ := cmd.Flags().GetString("ehr")
			resourceID, _ := cmd.Flags().GetString("resource")
			now, _ := cmd.Flags().GetString("now")
			promptsPath, _ := cmd.Flags().GetString("prompts")
			separate, _ := cmd.Flags().GetBool("separate-prompts")
			inputs, _ := cmd.Flags().GetStringSlice("inputs")

			if ehr == "" || resourceID == "" {
				return fmt.Errorf("--ehr and --resource are required")
			}

			clk := clock.New()
			if now != "" {
				at, err := time.Parse(defaults.DateLayout, now)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				clk = clock.NewFixed(at)
			}

			reg, err := resource.Default()
			if err != nil {
				return err
			}
			prompts := docprompts.NewStore()
			if promptsPath != "" {
				if err := promptfile.Load(promptsPath, prompts); err != nil {
					return err
				}
			}

			state := defaults.FormState{EHR: ehr, UseSeparatePrompts: separate}
			for _, in := range inputs {
				switch strings.TrimSpace(in) {
				case "ehr":
					state.PullFromEHR = true
				case "upload":
					state.AllowUpload = true
				case "text":
					state.AllowText = true
				default:
					return fmt.Errorf("--inputs: unknown input type %q", in)
				}
			}

			resolver := defaults.NewResolver(reg, prompts, clk)
			state = resolver.OnResourceSelected(resourceID, state)
			if state.ResourceID == "" {
				return fmt.Errorf("%w: %s has no resource %q", resource.ErrUnknownResource, ehr, resourceID)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}
	cmd.Flags().String("ehr", "", "EHR vendor id")
	cmd.Flags().String("resource", "", "resource id")
	cmd.Flags().String("now", "", "evaluate relative dates as of this day (YYYY-MM-DD)")
	cmd.Flags().String("prompts", "", "YAML document-type prompt file")
	cmd.Flags().Bool("separate-prompts", false, "use one prompt per input type")
	cmd.Flags().StringSlice("inputs", []string{"ehr"}, "enabled input types: ehr, upload, text")
	return cmd
}
