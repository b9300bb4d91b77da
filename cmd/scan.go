package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simulacomp/entregas/pkg/roster"
)

// scanCmd is a dry run: it shows what the matcher sees without copying
// anything or writing the summary.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show candidate teams for every submission without assigning anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs(configFromViper())
		if err != nil {
			return err
		}
		printScan(os.Stdout, in)
		return nil
	},
}

func printScan(out io.Writer, in *inputs) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ENTREGA\tMAIN FILE\tCANDIDATES\t")
	for _, s := range in.Subs {
		mainFile := "-"
		if f := s.MainFile(); f != "" {
			if rel, err := filepath.Rel(s.Path, f); err == nil {
				mainFile = rel
			} else {
				mainFile = f
			}
		}

		var cands []string
		for _, l := range in.Index.Links(s.Folder) {
			cands = append(cands, fmt.Sprintf("%s (%s)", roster.Label(l.Team), l.Evidence))
		}
		if len(cands) == 0 {
			cands = []string{"-"}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", s.Folder, mainFile, strings.Join(cands, ", "))
	}
	w.Flush()

	ambiguous := 0
	for _, t := range in.Teams {
		if len(in.Index.Candidates(t.Number)) > 1 {
			ambiguous++
		}
	}
	fmt.Fprintf(out, "\n%d submission(s), %d unmatched, %d team(s) with several candidates\n",
		len(in.Subs), len(in.Index.Unmatched()), ambiguous)
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
