// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibcheck/internal/fetch"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/internal/verify"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file.bib>",
	Short: "Annotate bibtex entries with resolver paper IDs",
	Long: `Resolve finds a paper ID for every entry that lacks a paper_id annotation:
from the doi field, the eprint field, or as a last resort a title search whose
best candidate must clear the confidence threshold. Found IDs are written back
as annotation comments; title matches also get a confidence comment so they
can be reviewed.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	addFetchFlags(resolveCmd)
	resolveCmd.Flags().String("output", "", "write the annotated file here instead of in place")
	resolveCmd.Flags().Bool("dry-run", false, "report what would be annotated without writing")
	resolveCmd.Flags().Float64("min-confidence", 0, "minimum title-match similarity to accept (default 0.85)")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	if minConfidence == 0 {
		minConfidence = viper.GetFloat64("min_confidence")
	}

	scholar := fetch.NewSemanticClient(fetchConfig(cmd), ratelimit.NewRegistry())
	defer scholar.Close()

	resolver := &verify.Resolver{Scholar: scholar, MinConfidence: minConfidence}
	report, updated, err := resolver.ResolveFile(cmd.Context(), string(content), os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(renderTable(
		[]string{"Outcome", "Entries"},
		[][]string{
			{"Resolved", strconv.Itoa(report.Resolved)},
			{"Already annotated", strconv.Itoa(report.AlreadyAnnotated)},
			{"Unresolved", strconv.Itoa(report.Unresolved)},
			{"Total", strconv.Itoa(report.TotalEntries)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun || updated == string(content) {
		return nil
	}

	target := args[0]
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		target = output
	}
	if err := os.WriteFile(target, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	fmt.Printf("\nWrote %s\n", target)
	return nil
}
