package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/lms-ally/syncer/src/app"
	"github.com/lms-ally/syncer/src/events"
	"github.com/lms-ally/syncer/src/utils/lms"

	"github.com/spf13/cobra"
)

var (
	event    events.Event
	fileJSON string
)

func init() {
	flags := eventCmd.Flags()
	flags.Int64Var(&event.ObjectId, "object-id", 0, "id of the changed object")
	flags.Int64Var(&event.CourseId, "course-id", 0, "course of the object")
	flags.Int64Var(&event.ContextId, "context-id", 0, "context of the object")
	flags.StringVar(&event.ModuleName, "module-name", "", "forum-like module owning a discussion or post")
	flags.Int64Var(&event.InstanceId, "instance-id", 0, "module instance owning a discussion or post")
	flags.Int64Var(&event.DiscussionId, "discussion-id", 0, "discussion of a post")
	flags.Int64Var(&event.FirstPostId, "first-post-id", 0, "opening post of a deleted discussion")
	flags.Int64Var(&event.TimeCreated, "time", 0, "unix time of the event, defaults to now")
	flags.StringVar(&event.OldFileName, "old-file-name", "", "previous name of a renamed file")
	flags.StringVar(&fileJSON, "file", "", "file record of a deleted file, as JSON")

	RootCmd.AddCommand(eventCmd)
}

var eventCmd = &cobra.Command{
	Use:   "event <name>",
	Short: "Handle one lifecycle event reported by the host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		event.Name = events.Name(args[0])

		if fileJSON != "" {
			event.File = new(lms.File)
			err = json.Unmarshal([]byte(fileJSON), event.File)
			if err != nil {
				return fmt.Errorf("invalid file record: %w", err)
			}
		}

		a, err := app.New(applicationCtx, conf)
		if err != nil {
			return
		}
		defer a.Close()

		return a.Events.Dispatch(applicationCtx, &event)
	},
}
