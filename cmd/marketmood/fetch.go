package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketmood/internal/extract"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Render upstream pages and store them as snapshots",
}

var fetchPostsCmd = &cobra.Command{
	Use:   "posts [symbol]",
	Short: "Fetch the post stream for a symbol",
	Long:  `Renders the symbol stream in headless Chrome, scrolling until no new posts load, and stores the markup. Pass --run to process the snapshot immediately.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetchPosts,
}

var fetchArticlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Fetch news search result pages and the articles they link",
	Args:  cobra.NoArgs,
	RunE:  runFetchArticles,
}

var (
	fetchRun          bool
	fetchArticleLimit int
)

func init() {
	fetchPostsCmd.Flags().BoolVar(&fetchRun, "run", false, "Process the snapshot after fetching")
	fetchArticlesCmd.Flags().IntVar(&fetchArticleLimit, "limit", 0, "Maximum articles to fetch, 0 for every listed article")
	fetchCmd.AddCommand(fetchPostsCmd, fetchArticlesCmd)
}

func runFetchPosts(cmd *cobra.Command, args []string) error {
	symbol := config.Schedule.Symbol
	if len(args) == 1 {
		symbol = args[0]
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	if fetchRun {
		summary, err := application.FetchAndRunPosts(ctx, symbol)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)
		return nil
	}

	fetcher, err := application.Fetcher()
	if err != nil {
		return err
	}
	snapshot, err := fetcher.FetchPosts(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored snapshot %s (%d bytes)\n", snapshot.Key, len(snapshot.HTML))
	return nil
}

func runFetchArticles(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	fetcher, err := application.Fetcher()
	if err != nil {
		return err
	}
	result, err := fetcher.FetchArticles(ctx, application.ArticleParser(extract.BodyText), fetchArticleLimit)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d listing pages and %d articles (%d failed)\n",
		len(result.Listings), len(result.Articles), result.Failed)
	return nil
}
