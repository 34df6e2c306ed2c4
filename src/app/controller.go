package app

import (
	"github.com/lms-ally/syncer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Controller runs the long lived parts of the syncer:
// the scheduled jobs, the monitoring API and, when enabled, the query surface
func NewController(app *App) (self *Controller) {
	self = new(Controller)

	self.Task = task.NewTask(app.Config, "controller").
		WithSubtask(app.MonitoringServer().Task).
		WithSubtask(app.Scheduler().Task)

	if app.Config.WebService.Enabled {
		self.Task = self.Task.WithSubtask(app.WebService().Task)
	}

	return
}

// ServerController runs the query surface without the scheduled jobs
func NewServerController(app *App) (self *Controller) {
	self = new(Controller)

	// Nothing is scheduled, health doesn't depend on job runs
	app.Monitor.WithMaxRunDelay(0)

	self.Task = task.NewTask(app.Config, "server-controller").
		WithSubtask(app.MonitoringServer().Task).
		WithSubtask(app.WebService().Task)

	return
}
