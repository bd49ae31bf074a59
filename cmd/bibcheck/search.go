// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibcheck/internal/bibtex"
	"github.com/pdiddy/bibcheck/internal/fetch"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search for papers and print candidate bibtex entries",
	Long: `Search runs a title/keyword search against the resolver, routes each
candidate through the source selector, and prints a normalized bibtex entry
per candidate. Candidates come from a relevance search; verify entries before
committing them to a bibliography.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	addFetchFlags(searchCmd)
	searchCmd.Flags().Int("limit", 5, "maximum number of candidates")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	fetcher := fetch.NewFetcher(fetchConfig(cmd), ratelimit.NewRegistry())
	defer fetcher.Close()

	query := strings.Join(args, " ")
	candidates, err := fetcher.Scholar.SearchByTitle(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("searching for %q: %w", query, err)
	}
	if len(candidates) == 0 {
		fmt.Println("No papers found.")
		return nil
	}

	for _, candidate := range candidates {
		bundle, err := fetcher.FetchBundleResolved(cmd.Context(), candidate, fetch.Options{BestEffort: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: fetching %s: %v\n", candidate.PaperID, err)
			continue
		}
		if bundle.Selected == nil {
			continue
		}

		fmt.Println(bibtex.PaperIDComment(candidate.PaperID))
		fmt.Println(bibtex.GenerateEntry(bundle.Selected))
		fmt.Printf("%% source: %s\n\n", bundle.Selected.Source)
	}

	fmt.Println("Entries above are search candidates; run `bibcheck verify` before using them.")
	return nil
}
