package config

import (
	"time"

	"github.com/spf13/viper"
)

// Lms describes the host LMS installation
type Lms struct {
	// Public root of the site, used for building links
	WwwRoot string

	// Endpoint notified about course and module changes made by the syncer.
	// Empty disables notifications, they're only logged.
	HookUrl string

	// Timeout of a single hook call
	HookTimeout time.Duration

	// Max time spent retrying a failed hook call
	HookMaxElapsedTime time.Duration
}

func setLmsDefaults(v *viper.Viper) {
	v.SetDefault("Lms.WwwRoot", "http://localhost")
	v.SetDefault("Lms.HookUrl", "")
	v.SetDefault("Lms.HookTimeout", "10s")
	v.SetDefault("Lms.HookMaxElapsedTime", "30s")
}
