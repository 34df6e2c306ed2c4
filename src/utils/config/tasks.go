package config

import (
	"time"

	"github.com/spf13/viper"
)

type Tasks struct {
	// Cron expressions of the scheduled jobs
	FileUpdatesSchedule    string
	ContentUpdatesSchedule string

	// Max duration of a single job run
	JobTimeout time.Duration

	// Number of file rows fetched in one query
	FilePageSize int

	// Files modified this long before a module event are pushed with the module
	ModuleFileWindow time.Duration

	// Health check fails when no scheduled job finished for this long, 0 disables the check
	MaxRunDelay time.Duration

	// Max time spent retrying a watermark write
	StoreMaxElapsedTime time.Duration
	StoreMaxInterval    time.Duration
}

func setTasksDefaults(v *viper.Viper) {
	v.SetDefault("Tasks.FileUpdatesSchedule", "@every 5m")
	v.SetDefault("Tasks.ContentUpdatesSchedule", "@every 5m")
	v.SetDefault("Tasks.JobTimeout", "30m")
	v.SetDefault("Tasks.FilePageSize", "5000")
	v.SetDefault("Tasks.ModuleFileWindow", "5m")
	v.SetDefault("Tasks.MaxRunDelay", "1h")
	v.SetDefault("Tasks.StoreMaxElapsedTime", "30s")
	v.SetDefault("Tasks.StoreMaxInterval", "5s")
}
