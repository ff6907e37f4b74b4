package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"listing-cleaner/loader"
	"listing-cleaner/services"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the exports and the tag columns a clean run would produce",
	Long: `Lists the export files with the metadata read from their names and the
number of records in each, then prints the tag vocabulary of the listings
that pass the required-field filter. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	batches, err := loader.New(logger).LoadDir(cfg.DataDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tDATE\tLOCATION\tOBJECT\tTRANSACTION\tRECORDS")
	for _, b := range batches {
		m := b.Metadata
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			b.Source, m.DownloadDate, m.SearchLocation, m.ObjectType, m.TransactionType, len(b.Records))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	cleaner := services.NewCleaner(logger)
	listings := cleaner.Build(batches)
	cleaner.Normalize(listings)
	cleaner.SplitLocations(listings)
	listings, dropped := cleaner.FilterRequired(listings)

	encoder := services.NewTagEncoder(logger)
	encoder.ParseAll(listings)
	vocab := services.BuildVocabulary(listings)

	fmt.Fprintf(out, "\n%d listings kept, %d dropped, %d tag columns:\n", len(listings), dropped, vocab.Len())
	for _, term := range vocab.Terms {
		fmt.Fprintf(out, "  %s\n", term)
	}
	return nil
}
