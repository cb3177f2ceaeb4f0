package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

var (
	flagDate   string
	flagLimit  uint64
	flagOffset uint64
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Collect and browse web articles",
}

var articlesRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect articles published on one day from every enabled source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		loc, err := e.cfg.Run.Location()
		if err != nil {
			return err
		}

		reference, err := parseDay(flagDate, loc)
		if err != nil {
			return err
		}

		report, err := e.app.RunArticles(cmd.Context(), reference)

		switch {
		case stopped(err):
			e.logger.Info().Msg("articles run interrupted")
		case err != nil:
			e.logger.Error().Err(err).Msg("articles run failed")
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s: listed %d, fresh %d, saved %d, duplicates %d, dropped %d, failed sources %d\n",
			report.RunID, report.Listed, report.Fresh, report.Saved, report.Duplicates, report.Dropped, report.FailedSources)

		return nil
	},
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored articles, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		articles, err := e.database.ListArticles(cmd.Context(), flagLimit, flagOffset)
		if err != nil {
			return err
		}

		return printArticles(cmd.OutOrStdout(), articles)
	},
}

var articlesSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search stored articles by title, summary or text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		articles, err := e.database.SearchArticles(cmd.Context(), args[0], flagLimit, flagOffset)
		if err != nil {
			return err
		}

		return printArticles(cmd.OutOrStdout(), articles)
	},
}

func init() {
	articlesRunCmd.Flags().StringVar(&flagDate, "date", "", "reference day as YYYY-MM-DD in RUN_TIMEZONE (default today)")

	for _, c := range []*cobra.Command{articlesListCmd, articlesSearchCmd} {
		c.Flags().Uint64Var(&flagLimit, "limit", 0, "maximum rows (default 50)")
		c.Flags().Uint64Var(&flagOffset, "offset", 0, "rows to skip")
	}

	articlesCmd.AddCommand(articlesRunCmd)
	articlesCmd.AddCommand(articlesListCmd)
	articlesCmd.AddCommand(articlesSearchCmd)
}

func printArticles(out io.Writer, articles []domain.WebArticle) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSITE\tPUBLISHED\tSTATUS\tTITLE")

	for _, a := range articles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.ID, a.SiteName, a.PublishedAt.Format(dateLayout), a.Status, a.Title)
	}

	return w.Flush()
}
