package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lms-ally/syncer/src/utils/config"
	l "github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model/sql_migrations"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Tables owned by the syncer
var Tables = []any{
	&DeletedContent{},
	&DeletedFile{},
	&ContentQueueItem{},
	&Setting{},
}

func newLogger() logger.Interface {
	return logger.New(l.NewSublogger("db"),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Error,           // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,                  // Disable color
		},
	)
}

func dialector(dbConfig *config.Database, username, password, applicationName string) (gorm.Dialector, error) {
	switch dbConfig.Driver {
	case config.DRIVER_SQLITE:
		return sqlite.Open(dbConfig.Path), nil
	case config.DRIVER_POSTGRES:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=ally/%s",
			dbConfig.Host,
			dbConfig.Port,
			username,
			password,
			dbConfig.Name,
			dbConfig.SslMode,
			applicationName,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, dbConfig.Driver)
	}
}

func Connect(ctx context.Context, dbConfig *config.Database, username, password, applicationName string) (self *gorm.DB, err error) {
	d, err := dialector(dbConfig, username, password, applicationName)
	if err != nil {
		return
	}

	self, err = gorm.Open(d, &gorm.Config{Logger: newLogger()})
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}

	if dbConfig.Driver == config.DRIVER_SQLITE {
		// Single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(dbConfig.MaxOpenConns)
		db.SetMaxIdleConns(dbConfig.MaxIdleConns)
		db.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)
		db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}

	err = ping(ctx, dbConfig, self)
	if err != nil {
		return
	}

	return
}

// NewConnection applies migrations and connects with the regular user
func NewConnection(ctx context.Context, config *config.Config, applicationName string) (self *gorm.DB, err error) {
	err = Migrate(ctx, config)
	if err != nil {
		return
	}

	self, err = Connect(ctx, &config.Database, config.Database.User, config.Database.Password, applicationName)
	if err != nil {
		return
	}

	return
}

func Migrate(ctx context.Context, conf *config.Config) (err error) {
	log := l.NewSublogger("db-migrate")

	if conf.Database.Driver == config.DRIVER_SQLITE {
		var db *gorm.DB
		db, err = Connect(ctx, &conf.Database, "", "", "migration")
		if err != nil {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		log.Info("Migrating sqlite schema")
		return AutoMigrate(db)
	}

	if conf.Database.MigrationUser == "" || conf.Database.MigrationPassword == "" {
		log.Info("Migration user not set, skipping migrations")
		return
	}

	migrations := &migrate.HttpFileSystemMigrationSource{
		FileSystem: http.FS(sql_migrations.FS),
	}

	// Use special migration user
	self, err := Connect(ctx, &conf.Database, conf.Database.MigrationUser, conf.Database.MigrationPassword, "migration")
	if err != nil {
		return
	}

	db, err := self.DB()
	if err != nil {
		return
	}
	defer db.Close()

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return
	}

	log.WithField("num", n).Info("Applied migrations")

	conf.Database.MigrationUser = ""
	conf.Database.MigrationPassword = ""

	return
}

// AutoMigrate creates tables owned by the syncer without going through sql migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Tables...)
}

func ping(ctx context.Context, dbConfig *config.Database, db *gorm.DB) (err error) {
	if dbConfig.PingTimeout < 0 {
		// Ping disabled
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbConfig.PingTimeout)
	defer cancel()

	return sqlDB.PingContext(dbCtx)
}
