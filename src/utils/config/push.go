package config

import (
	"time"

	"github.com/spf13/viper"
)

// Push configures delivery of change notifications to the analysis service
type Push struct {
	// Endpoint receiving batches of changes
	Url string

	// Credentials used to sign requests
	Key    string
	Secret string

	// Maximum number of payloads sent in one request
	BatchSize int

	// Whole request timeout
	Timeout time.Duration

	// Time allowed for establishing the connection
	ConnectTimeout time.Duration

	// Log requests and responses
	Debug bool

	// Retries upon 5xx responses, 0 disables retrying
	RetryCount int

	// Outgoing requests per second, 0 means no limit
	RequestsPerSecond float64

	// Lifetime of the token signed for each request
	TokenTTL time.Duration
}

func setPushDefaults(v *viper.Viper) {
	v.SetDefault("Push.Url", "")
	v.SetDefault("Push.Key", "")
	v.SetDefault("Push.Secret", "")
	v.SetDefault("Push.BatchSize", "500")
	v.SetDefault("Push.Timeout", "60s")
	v.SetDefault("Push.ConnectTimeout", "10s")
	v.SetDefault("Push.Debug", "false")
	v.SetDefault("Push.RetryCount", "0")
	v.SetDefault("Push.RequestsPerSecond", "0")
	v.SetDefault("Push.TokenTTL", "5m")
}

// IsValid is true when all the settings needed to reach the endpoint are set
func (self *Push) IsValid() bool {
	return self.Url != "" && self.Key != "" && self.Secret != ""
}

// GetBatchSize never returns a value below 1
func (self *Push) GetBatchSize() int {
	if self.BatchSize < 1 {
		return 500
	}
	return self.BatchSize
}
