package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simulacomp/entregas/pkg/roster"
)

// rosterCmd represents the roster command
var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Prints the teams parsed from the roster file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("roster.path")
		if path == "" {
			var err error
			path, err = roster.Find(viper.GetString("entregas.dir"))
			if err != nil {
				return err
			}
		}

		teams, err := loadRoster(path)
		if err != nil {
			return err
		}
		printRoster(os.Stdout, teams)
		return nil
	},
}

func printRoster(out io.Writer, teams []roster.Team) {
	if len(teams) == 0 {
		fmt.Fprintln(out, "No teams found in the roster.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TEAM\tNAME\tMEMBERS\t")
	for _, t := range teams {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", t.Label(), t.Name, strings.Join(t.Members, ", "))
	}
	fmt.Fprintln(w, " \t \t \t")
	fmt.Fprintf(w, "TOTAL\t%d\t\t\n", len(teams))
	w.Flush()
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
