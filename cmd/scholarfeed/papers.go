package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
)

var (
	flagTitle   string
	flagPaperID string
	flagNote    string
	flagNoteDay string
)

var errMissingTitle = errors.New("--title is required")

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Ingest, annotate and browse academic papers",
}

var papersIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Resolve a paper by title, analyse it and store it once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(flagTitle) == "" {
			return errMissingTitle
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.app.IngestPaper(cmd.Context(), flagTitle)
		if err != nil {
			e.logger.Error().Err(err).Str("title", flagTitle).Msg("paper ingest failed")
			return err
		}

		state := "stored"
		if !res.Created {
			state = "already stored (" + res.MatchKind + ")"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "paper %d %s\n%s\n", res.Paper.ID, state, res.Paper.Citation)

		return nil
	},
}

var papersNoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Attach a dated note to a stored paper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := domain.ParseID(flagPaperID)
		if err != nil {
			return err
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		var day time.Time
		if flagNoteDay != "" {
			if day, err = parseDay(flagNoteDay, time.UTC); err != nil {
				return err
			}
		}

		note, err := e.app.AddPaperNote(cmd.Context(), id, flagNote, day)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "note %d added to paper %d on %s\n", note.ID, note.PaperID, note.NoteDate.Format(dateLayout))

		return nil
	},
}

var papersNotesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List the notes of a stored paper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := domain.ParseID(flagPaperID)
		if err != nil {
			return err
		}

		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		notes, err := e.database.ListPaperNotes(cmd.Context(), id)
		if err != nil {
			return err
		}

		for _, n := range notes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", n.NoteDate.Format(dateLayout), n.Note)
		}

		return nil
	},
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored papers, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		papers, err := e.database.ListPapers(cmd.Context(), flagLimit, flagOffset)
		if err != nil {
			return err
		}

		return printPapers(cmd.OutOrStdout(), papers)
	},
}

var papersSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search stored papers by title or abstract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		papers, err := e.database.SearchPapers(cmd.Context(), args[0], flagLimit, flagOffset)
		if err != nil {
			return err
		}

		return printPapers(cmd.OutOrStdout(), papers)
	},
}

func init() {
	papersIngestCmd.Flags().StringVar(&flagTitle, "title", "", "paper title to resolve")

	papersNoteCmd.Flags().StringVar(&flagPaperID, "id", "", "stored paper id")
	papersNoteCmd.Flags().StringVar(&flagNote, "note", "", "note text")
	papersNoteCmd.Flags().StringVar(&flagNoteDay, "date", "", "note day as YYYY-MM-DD (default today)")

	papersNotesCmd.Flags().StringVar(&flagPaperID, "id", "", "stored paper id")

	for _, c := range []*cobra.Command{papersListCmd, papersSearchCmd} {
		c.Flags().Uint64Var(&flagLimit, "limit", 0, "maximum rows (default 50)")
		c.Flags().Uint64Var(&flagOffset, "offset", 0, "rows to skip")
	}

	papersCmd.AddCommand(papersIngestCmd)
	papersCmd.AddCommand(papersNoteCmd)
	papersCmd.AddCommand(papersNotesCmd)
	papersCmd.AddCommand(papersListCmd)
	papersCmd.AddCommand(papersSearchCmd)
}

func printPapers(out io.Writer, papers []domain.AcademicPaper) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPUBLISHED\tSTATUS\tCITATIONS\tTITLE")

	for _, p := range papers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.PublishedAt.Format(dateLayout), p.Status, p.CitationCount, p.Title)
	}

	return w.Flush()
}
