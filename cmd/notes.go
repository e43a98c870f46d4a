package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tab/fretboard"
	"github.com/RyanBlaney/sonido-tab/tablature"
)

func init() {
	rootCmd.AddCommand(notesCmd)
}

var notesCmd = &cobra.Command{
	Use:   "notes <file.wav | note...>",
	Short: "Draws fretboard diagrams",
	Long: `Draws a fretboard diagram for each note. Given a WAV file, the notes are
the ones detected in it, in the order they were first heard.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 && isWAV(args[0]) {
			res, err := tablature.NewPipeline(cfg).Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Notes.Len() == 0 {
				fmt.Fprintln(out, "no notes detected")
				return nil
			}
			return renderNotes(out, fretboard.Standard, res.Notes.Order)
		}

		return renderNotes(out, fretboard.Standard, args)
	},
}

func renderNotes(w io.Writer, fb *fretboard.Fretboard, notes []string) error {
	for i, note := range notes {
		if i > 0 {
			fmt.Fprintln(w)
		}

		positions := fb.Positions(note)
		if len(positions) == 0 {
			fmt.Fprintf(w, "%s: not playable on frets 0-%d\n", note, fb.Frets())
			continue
		}

		fmt.Fprintf(w, "%s:", note)
		for _, p := range positions {
			fmt.Fprintf(w, " %s/%d", p.String, p.Fret)
		}
		fmt.Fprintln(w)

		if err := fb.Render(w, positions); err != nil {
			return err
		}
	}
	return nil
}
