package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simulacomp/entregas/internal/utils"
)

var cfgFile string

const (
	LOGO = `
	             _
	  ___ _ __ | |_ _ __ ___  __ _  __ _ ___
	 / _ \ '_ \| __| '__/ _ \/ _' |/ _' / __|
	|  __/ | | | |_| | |  __/ (_| | (_| \__ \
	 \___|_| |_|\__|_|  \___|\__, |\__,_|___/
	                         |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "entregas",
	Short: "Match competition submissions to registered teams.",
	Long: LOGO + `entregas reconciles the submitted project folders of a robotics competition
with the roster of registered teams, copies each team's main artifact into its
team folder and writes an assignment summary for the organizers.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.entregas.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("entregas", "e", defaultEntregasDir, "Directory holding one sub-directory per submission")
	rootCmd.PersistentFlags().StringP("teams", "t", defaultTeamsDir, "Output directory for teamNN folders")
	rootCmd.PersistentFlags().StringP("roster", "r", "", "Roster file (.csv, .xlsx or .json). Default: first *.csv in the entregas directory")
	rootCmd.PersistentFlags().StringP("summary", "s", defaultSummaryPath, "Assignment summary CSV path")

	viper.BindPFlag("entregas.dir", rootCmd.PersistentFlags().Lookup("entregas"))
	viper.BindPFlag("teams.dir", rootCmd.PersistentFlags().Lookup("teams"))
	viper.BindPFlag("roster.path", rootCmd.PersistentFlags().Lookup("roster"))
	viper.BindPFlag("summary.path", rootCmd.PersistentFlags().Lookup("summary"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".entregas")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.entregas.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
