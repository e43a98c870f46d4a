package cmd

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tab/tablature"
)

var (
	analyzeDominant bool
	analyzeOutput   string
	analyzeIndent   bool
)

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeDominant, "dominant", false, "print the strongest frequency of each frame instead of notes")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write JSON here instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeIndent, "indent", false, "indent the JSON output")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.wav>",
	Short: "Detects notes in a WAV file",
	Long: `Detects notes in a WAV file and prints a JSON document with the note
events ("timing") and the fretboard positions of every distinct note ("notes").
A failed run still prints the document, with "error" set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if analyzeOutput != "" {
			f, err := os.Create(analyzeOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		pipeline := tablature.NewPipeline(cfg)

		if analyzeDominant {
			pitches, err := pipeline.Dominant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(out, map[string][]float64{"dominant_pitches": pitches}, analyzeIndent)
		}

		res, runErr := pipeline.Run(cmd.Context(), args[0])
		if runErr != nil {
			res = tablature.ErrorResult(runErr)
		}
		if err := writeJSON(out, res, analyzeIndent); err != nil {
			return err
		}
		return runErr
	},
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
