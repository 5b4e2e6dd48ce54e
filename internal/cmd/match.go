package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
)

var (
	matchPatterns string
	matchSave     string
)

var matchCmd = &cobra.Command{
	Use:   "match <gesture>",
	Short: "Rank a gesture string against a patterns file",
	Long: `Score a gesture string against every pattern in a patterns file and print
the ranking, closest first, along with whether the closest one matches.
With --save, the gesture is then stored in the patterns file under the given
name, replacing any pattern of the same name.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().StringVarP(&matchPatterns, "patterns", "p", "", "Patterns file (default: patterns_file from config)")
	matchCmd.Flags().StringVar(&matchSave, "save", "", "Store the gesture in the patterns file under this name")
}

func runMatch(cmd *cobra.Command, args []string) error {
	path := matchPatterns
	if path == "" {
		path = cfg.PatternsFile
	}
	if path == "" {
		return errors.New("no patterns file: set --patterns or patterns_file")
	}

	patterns, err := gesture.LoadPatternFile(path)
	if err != nil {
		return err
	}

	input := gesture.String(args[0])
	if !input.WellFormed() {
		return fmt.Errorf("%q is not a gesture string", args[0])
	}

	m := gesture.NewMatcher(app.ConfigFrom(cfg).Thresholds)
	candidates := gesture.Candidates(patterns)
	res, err := m.Score(cmd.Context(), input, candidates)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verdict := "no match"
	if res.Matched {
		verdict = "match"
	}
	fmt.Fprintf(out, "%s: %s (%.1f%%, threshold %.1f%%)\n", verdict, res.Closest.Name, res.Score, res.ThresholdPct)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISTANCE\tPERCENT\tPATTERN")
	for _, c := range m.Rank(input, candidates) {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%s\n", c.Name, c.Distance, c.DistancePct, c.Pattern)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if matchSave == "" {
		return nil
	}
	if strings.ContainsAny(matchSave, " \t") {
		return fmt.Errorf("pattern name %q contains whitespace", matchSave)
	}
	if err := gesture.SavePatternFile(path, upsertPattern(patterns, gesture.Pattern{Name: matchSave, Gesture: input})); err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s to %s\n", matchSave, path)
	return nil
}

// upsertPattern replaces the pattern named like p, or appends p.
func upsertPattern(patterns []gesture.Pattern, p gesture.Pattern) []gesture.Pattern {
	for i := range patterns {
		if patterns[i].Name == p.Name {
			patterns[i] = p
			return patterns
		}
	}
	return append(patterns, p)
}
