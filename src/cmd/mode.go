package cmd

import (
	"fmt"

	"github.com/lms-ally/syncer/src/app"

	"github.com/spf13/cobra"
)

var cliOnly string

func init() {
	modeCmd.Flags().StringVar(&cliOnly, "cli-only", "", "set to true to suspend live pushes, false to resume them")
	RootCmd.AddCommand(modeCmd)
}

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or change whether changes are pushed live or only by the scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := app.New(applicationCtx, conf)
		if err != nil {
			return
		}
		defer a.Close()

		switch cliOnly {
		case "":
		case "true", "false":
			err = a.Settings.SetCliOnly(applicationCtx, cliOnly == "true")
			if err != nil {
				return
			}
		default:
			return fmt.Errorf("invalid --cli-only value: %q", cliOnly)
		}

		isCliOnly, err := a.Settings.IsCliOnly(applicationCtx)
		if err != nil {
			return
		}

		mode := "live"
		if isCliOnly {
			mode = "cli-only"
		}
		fmt.Fprintln(cmd.OutOrStdout(), mode)
		return
	},
}
