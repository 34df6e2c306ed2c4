package cmd

import (
	"github.com/lms-ally/syncer/src/app"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the query surface and lifecycle event endpoint without running scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := app.New(applicationCtx, conf)
		if err != nil {
			return
		}
		defer a.Close()

		controller := app.NewServerController(a)
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
