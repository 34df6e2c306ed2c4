package cmd

import (
	"github.com/lms-ally/syncer/src/utils/model"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the tables owned by the syncer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return model.Migrate(applicationCtx, conf)
	},
}
