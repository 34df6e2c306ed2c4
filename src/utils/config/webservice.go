package config

import (
	"time"

	"github.com/spf13/viper"
)

type WebService struct {
	// Is the query surface served
	Enabled bool

	// Address of the query surface
	ListenAddress string

	// HS256 secret verifying bearer tokens. Subject claim is the calling user id.
	TokenSecret string

	// Max time spent on a single request
	RequestTimeout time.Duration
}

func setWebServiceDefaults(v *viper.Viper) {
	v.SetDefault("WebService.Enabled", "true")
	v.SetDefault("WebService.ListenAddress", ":8080")
	v.SetDefault("WebService.TokenSecret", "")
	v.SetDefault("WebService.RequestTimeout", "30s")
}
