package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simulacomp/entregas/internal/utils"
	"github.com/simulacomp/entregas/pkg/assign"
	"github.com/simulacomp/entregas/pkg/summary"
)

// assignCmd implements: entregas assign
//
//	--entregas string   submissions directory
//	--teams string      teamNN output directory
//	--roster string     roster file (auto-detected when empty)
//	--summary string    summary CSV path
//	--artifact string   file name copied into each team folder
var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign submissions to teams, copy artifacts and write the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'entregas assign --help'", args[0])
		}
		_, err := runAssign(configFromViper(), os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().String("artifact", assign.DefaultArtifact, "File name given to the artifact copied into each team folder")
	viper.BindPFlag("teams.artifact", assignCmd.Flags().Lookup("artifact"))
}

// runAssign executes a full run and writes the summary file.
func runAssign(cfg runConfig, out io.Writer) (*assign.Result, error) {
	utils.Log.Debugf("Run configuration: %s", cfg)

	in, err := loadInputs(cfg)
	if err != nil {
		return nil, err
	}

	lock, err := utils.NewRunLock(cfg.TeamsDir)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	resolver := assign.NewResolver(assign.NewStore(cfg.TeamsDir, cfg.Artifact))
	res, err := resolver.Resolve(in.Teams, in.Subs, in.Index)
	if err != nil {
		return nil, err
	}

	if err := summary.WriteFile(cfg.SummaryPath, summary.Rows(res.Records)); err != nil {
		return nil, err
	}

	tally := res.Tally()
	fmt.Fprintf(out, "Processed %d team(s), %d submission(s)\n", res.Teams, len(res.Records))
	for _, a := range assign.Actions {
		if tally[a] > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", a, tally[a])
		}
	}
	fmt.Fprintf(out, "\nWrote %s\n", cfg.SummaryPath)
	return res, nil
}
