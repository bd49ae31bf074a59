// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibcheck/internal/fetch"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
	"github.com/pdiddy/bibcheck/internal/verify"
	"github.com/pdiddy/bibcheck/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file.bib>",
	Short: "Verify bibtex entries against authoritative metadata",
	Long: `Verify checks every entry in a bibtex file against its authoritative
metadata source. Entries are matched to papers through paper_id annotation
comments (or their doi/eprint fields); fields are compared three ways: exact
matches pass, stylistic differences warn, and real disagreements fail.

The exit code is the worst entry status: 0 pass, 1 warning, 2 fail.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	addFetchFlags(verifyCmd)
	verifyCmd.Flags().Int("max-age", -1, "re-verify entries whose annotation is older than this many days (negative: never)")
	verifyCmd.Flags().Bool("reverify", false, "ignore existing verification annotations (same as --max-age 0)")
	verifyCmd.Flags().Bool("arxiv-check", true, "cross-check authors against arXiv for non-arXiv sources")
	verifyCmd.Flags().Bool("auto-find", true, "fall back to doi/eprint fields for entries without a paper_id comment")
	verifyCmd.Flags().Bool("json", false, "print the full report as JSON")
	verifyCmd.Flags().Bool("yaml", false, "print the full report as YAML")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	maxAge, _ := cmd.Flags().GetInt("max-age")
	if reverify, _ := cmd.Flags().GetBool("reverify"); reverify {
		maxAge = 0
	}
	arxivCheck, _ := cmd.Flags().GetBool("arxiv-check")
	autoFind, _ := cmd.Flags().GetBool("auto-find")

	fetcher := fetch.NewFetcher(fetchConfig(cmd), ratelimit.NewRegistry())
	defer fetcher.Close()

	opts := verify.Options{
		MaxAgeDays:  maxAge,
		ArxivCheck:  arxivCheck,
		AutoFindIDs: autoFind,
	}
	report, err := verify.File(cmd.Context(), fetcher, string(content), opts, os.Stdout)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	case asYAML:
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		os.Stdout.Write(out)
	default:
		printVerifyReport(report)
	}

	exitCode = statusExitCode(report.OverallStatus())
	return nil
}

func printVerifyReport(report *types.VerificationReport) {
	for i := range report.Results {
		printResultDetail(&report.Results[i])
	}

	fmt.Println()
	fmt.Println(renderTable(
		[]string{"Outcome", "Entries"},
		[][]string{
			{"Verified", strconv.Itoa(report.Verified)},
			{"Verified with warnings", strconv.Itoa(report.VerifiedWithWarnings)},
			{"Already verified", strconv.Itoa(report.AlreadyVerified)},
			{"No paper ID", strconv.Itoa(report.NoPaperID)},
			{"Missing date", strconv.Itoa(report.MissingDate)},
			{"Failed", strconv.Itoa(report.Failed)},
			{"Total", strconv.Itoa(report.TotalEntries)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	fmt.Printf("\nOverall: %s\n", report.OverallStatus())
}

func printResultDetail(r *types.VerificationResult) {
	status := r.Status()
	if status == types.StatusPass && len(r.Warnings) == 0 {
		return
	}

	fmt.Printf("\n%s: %s\n", status, r.EntryKey)
	if r.Message != "" {
		fmt.Printf("  %s\n", r.Message)
	}
	for _, m := range r.Mismatches {
		fmt.Printf("  %s (%s):\n    bibtex:  %s\n    fetched: %s\n", m.Field, m.Source, m.BibtexValue, m.FetchedValue)
		if m.Similarity > 0 {
			fmt.Printf("    similarity: %.2f\n", m.Similarity)
		}
	}
	for _, w := range r.Warnings {
		fmt.Printf("  %s differs only in style (%s):\n    bibtex:  %s\n    fetched: %s\n", w.Field, w.Source, w.BibtexValue, w.FetchedValue)
	}
}
