package main

import (
	"github.com/spf13/cobra"
	"github.com/ternarybob/marketmood/internal/extract"
	"github.com/ternarybob/marketmood/internal/models"
)

var articlesCmd = &cobra.Command{
	Use:   "articles [listing files...]",
	Short: "Extract article records from search result pages",
	Long:  `Extracts title, link, authors and time from each search result and attaches the article body from stored article snapshots. Without files the newest stored listing pages are used.`,
	RunE:  runArticles,
}

var articlesMarkdown bool

func init() {
	articlesCmd.Flags().BoolVar(&articlesMarkdown, "markdown", false, "Keep article bodies as markdown instead of plain paragraphs")
}

func runArticles(cmd *cobra.Command, args []string) error {
	format := extract.BodyText
	if articlesMarkdown {
		format = extract.BodyMarkdown
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	var summary *models.RunSummary
	if len(args) > 0 {
		summary, err = application.RunArticlesFiles(ctx, args, format)
	} else {
		summary, err = application.RunArticlesSnapshots(ctx, format)
	}
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	return nil
}
