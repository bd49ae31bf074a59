// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibcheck/internal/bibtex"
	"github.com/pdiddy/bibcheck/internal/fetch"
	"github.com/pdiddy/bibcheck/internal/ratelimit"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <paper-id>...",
	Short: "Print clean bibtex entries for paper IDs",
	Long: `Fetch resolves each paper ID (resolver hex ID, DOI:..., ARXIV:..., or a bare
arXiv identifier), pulls its metadata from the selected authoritative source,
and prints a normalized bibtex entry with its paper_id annotation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	fetcher := fetch.NewFetcher(fetchConfig(cmd), ratelimit.NewRegistry())
	defer fetcher.Close()

	var failures int
	for _, id := range args {
		bundle, err := fetcher.FetchBundle(cmd.Context(), id, fetch.Options{})
		if err != nil {
			fmt.Printf("%% %s: %v\n\n", id, err)
			failures++
			continue
		}
		if bundle.Selected == nil {
			fmt.Printf("%% %s: no metadata source has this paper\n\n", id)
			failures++
			continue
		}

		fmt.Println(bibtex.PaperIDComment(fetch.NormalizePaperID(id)))
		fmt.Println(bibtex.GenerateEntry(bundle.Selected))
		fmt.Printf("%% source: %s\n\n", bundle.Selected.Source)
	}

	if failures > 0 {
		return fmt.Errorf("%d paper(s) could not be fetched", failures)
	}
	return nil
}
