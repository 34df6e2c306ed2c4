package config

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Prefix of every environment variable recognized by the syncer
const ENV_PREFIX = "ALLY_"

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// REST API address. API used for monitoring etc.
	RESTListenAddress string

	// Maximum time the syncer will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database   Database
	Push       Push
	Lms        Lms
	Access     Access
	Tasks      Tasks
	WebService WebService
	Profiler   Profiler
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("IsDevelopment", "false")
	v.SetDefault("RESTListenAddress", ":7777")
	v.SetDefault("LogLevel", "DEBUG")
	v.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults(v)
	setPushDefaults(v)
	setLmsDefaults(v)
	setAccessDefaults(v)
	setTasksDefaults(v)
	setWebServiceDefaults(v)
	setProfilerDefaults(v)
}

// Default returns configuration built only from defaults and environment
func Default() (config *Config) {
	config, err := Load("")
	if err != nil {
		panic(err)
	}
	return
}

// BindEnv visits every field and registers upper snake case ENV name for it
func BindEnv(v *viper.Viper, path []string, val reflect.Value) {
	if val.Kind() == reflect.Struct {
		for i := 0; i < val.NumField(); i++ {
			newPath := make([]string, len(path))
			copy(newPath, path)
			newPath = append(newPath, val.Type().Field(i).Name)
			BindEnv(v, newPath, val.Field(i))
		}
		return
	}

	// Base types and slices of base types
	key := strings.ToLower(strings.Join(path, "."))
	env := ENV_PREFIX + strcase.ToScreamingSnake(strings.Join(path, "_"))
	err := v.BindEnv(key, env)
	if err != nil {
		panic(err)
	}
}

func decodeHooks(c *mapstructure.DecoderConfig) {
	c.WeaklyTypedInput = true
	c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	v := viper.New()
	v.SetConfigType("json")

	setDefaults(v)
	BindEnv(v, []string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = v.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = v.Unmarshal(config, decodeHooks)
	if err != nil {
		return nil, err
	}

	return
}
