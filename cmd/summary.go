package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simulacomp/entregas/pkg/assign"
	"github.com/simulacomp/entregas/pkg/summary"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prints statistics about an existing assignment summary.",
	Long:  "Prints per-action totals of an assignment summary, or the whole summary as JSON with --json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("summary.path")
		asJSON, _ := cmd.Flags().GetBool("json")

		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("summary file not found: %s (run 'entregas assign' first)", path)
			}
			return err
		}
		defer f.Close()

		rows, err := summary.Read(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if asJSON {
			out, err := summary.JSON(rows)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}
		printTally(os.Stdout, rows)
		return nil
	},
}

func printTally(out io.Writer, rows []summary.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "The summary has no rows.")
		return
	}

	tally := summary.Tally(rows)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ACTION\tENTREGAS\t")
	for _, a := range assign.Actions {
		fmt.Fprintf(w, "%s\t%d\t\n", a, tally[a])
	}
	unknown := 0
	for a, n := range tally {
		if !a.Valid() {
			unknown += n
		}
	}
	if unknown > 0 {
		fmt.Fprintf(w, "unknown\t%d\t\n", unknown)
	}
	fmt.Fprintln(w, " \t \t")
	fmt.Fprintf(w, "TOTAL\t%d\t\n", len(rows))
	w.Flush()

	for _, r := range rows {
		if r.Action == assign.ActionConflict {
			fmt.Fprintf(out, "needs review: %s (%s)\n", r.Folder, r.Teams)
		}
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().Bool("json", false, "Print the summary rows as JSON")
}
