package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/simulacomp/entregas/internal/utils"
	"github.com/simulacomp/entregas/pkg/assign"
	"github.com/simulacomp/entregas/pkg/match"
	"github.com/simulacomp/entregas/pkg/roster"
	"github.com/simulacomp/entregas/pkg/submission"
)

const (
	defaultEntregasDir = "competition/entregas"
	defaultTeamsDir    = "competition/teams"
	defaultSummaryPath = "competition/assignment_summary.csv"
)

func setDefaults() {
	viper.SetDefault("entregas.dir", defaultEntregasDir)
	viper.SetDefault("teams.dir", defaultTeamsDir)
	viper.SetDefault("teams.artifact", assign.DefaultArtifact)
	viper.SetDefault("roster.path", "")
	viper.SetDefault("summary.path", defaultSummaryPath)
	viper.SetDefault("scan.content_exts", submission.DefaultOptions().ContentExts)
	viper.SetDefault("scan.text_exts", submission.DefaultOptions().TextExts)
}

// runConfig gathers every setting a run needs so commands can be exercised
// without going through viper.
type runConfig struct {
	EntregasDir string
	TeamsDir    string
	Artifact    string
	RosterPath  string
	SummaryPath string
	Scan        submission.Options
}

func configFromViper() runConfig {
	return runConfig{
		EntregasDir: viper.GetString("entregas.dir"),
		TeamsDir:    viper.GetString("teams.dir"),
		Artifact:    viper.GetString("teams.artifact"),
		RosterPath:  viper.GetString("roster.path"),
		SummaryPath: viper.GetString("summary.path"),
		Scan: submission.Options{
			ContentExts: viper.GetStringSlice("scan.content_exts"),
			TextExts:    viper.GetStringSlice("scan.text_exts"),
		},
	}
}

// inputs is everything read from disk before any decision is made.
type inputs struct {
	Roster string
	Teams  []roster.Team
	Subs   []submission.Submission
	Index  *match.Index
}

// loadInputs scans submissions first so an empty submissions directory is
// reported before anything else.
func loadInputs(cfg runConfig) (*inputs, error) {
	subs, err := submission.Scan(cfg.EntregasDir, cfg.Scan)
	if err != nil {
		return nil, err
	}

	path := cfg.RosterPath
	if path == "" {
		path, err = roster.Find(cfg.EntregasDir)
		if err != nil {
			return nil, err
		}
	}
	teams, err := loadRoster(path)
	if err != nil {
		return nil, err
	}
	utils.Log.Infof("Loaded %d team(s) from %s and %d submission(s) from %s", len(teams), path, len(subs), cfg.EntregasDir)

	return &inputs{
		Roster: path,
		Teams:  teams,
		Subs:   subs,
		Index:  match.Build(teams, subs),
	}, nil
}

func loadRoster(path string) ([]roster.Team, error) {
	teams, err := roster.Load(path)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		utils.Log.Warnf("Roster %s holds no team rows", path)
	}
	return teams, nil
}

func (c runConfig) String() string {
	return fmt.Sprintf("entregas=%s teams=%s roster=%q summary=%s", c.EntregasDir, c.TeamsDir, c.RosterPath, c.SummaryPath)
}
