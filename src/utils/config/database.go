package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DRIVER_POSTGRES = "postgres"
	DRIVER_SQLITE   = "sqlite"
)

type Database struct {
	// postgres or sqlite
	Driver string

	// Sqlite database file, used only by the sqlite driver
	Path string

	Port              uint16
	Host              string
	User              string
	Password          string
	Name              string
	SslMode           string
	PingTimeout       time.Duration
	MigrationUser     string
	MigrationPassword string

	// Connection pool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("Database.Driver", DRIVER_POSTGRES)
	v.SetDefault("Database.Path", "ally.db")
	v.SetDefault("Database.Port", "5432")
	v.SetDefault("Database.Host", "127.0.0.1")
	v.SetDefault("Database.User", "moodle")
	v.SetDefault("Database.Password", "moodle")
	v.SetDefault("Database.Name", "moodle")
	v.SetDefault("Database.SslMode", "disable")
	v.SetDefault("Database.PingTimeout", "15s")
	v.SetDefault("Database.MigrationUser", "moodle")
	v.SetDefault("Database.MigrationPassword", "moodle")
	v.SetDefault("Database.MaxOpenConns", "10")
	v.SetDefault("Database.MaxIdleConns", "2")
	v.SetDefault("Database.ConnMaxIdleTime", "5m")
	v.SetDefault("Database.ConnMaxLifetime", "60m")
}
