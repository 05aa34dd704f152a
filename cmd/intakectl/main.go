// Command intakectl inspects the intake configuration and stored submissions,
// and lets staff fill in an enquiry from the terminal.
package main

import (
	"os"
	"time"

	"github.com/kiliankoe/cdrintake/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "intakectl",
	Short:         "Manage CDR intake enquiries",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd, countriesCmd, fillCmd, submissionsCmd)
	submissionsCmd.Flags().IntVarP(&submissionsLimit, "limit", "n", 20, "maximum number of submissions to list (0 for all)")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("intakectl failed")
		os.Exit(1)
	}
}
