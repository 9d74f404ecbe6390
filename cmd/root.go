package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/mentorbook_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/mentorbook_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "mentorbook",
	Short: "Mentorbook mentor availability and appointment scheduling service.",
	Long: `Mentorbook lets mentors publish weekly availability and students book
appointments inside it. Appointments move through a confirm, cancel and
complete lifecycle with no double booking for either party.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
