package cmd

import (
	"github.com/lms-ally/syncer/src/app"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled jobs, the query surface and the monitoring API until stopped",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := app.New(applicationCtx, conf)
		if err != nil {
			return
		}
		defer a.Close()

		controller := app.NewController(a)
		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()
		return
	},
}
