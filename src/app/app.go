package app

import (
	"context"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/events"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/tasks"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"
	"github.com/lms-ally/syncer/src/webservice"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds the state shared by everything the syncer does in one process:
// the database handle, caches of the host data and the delivery pipeline.
type App struct {
	Config  *config.Config
	Log     *logrus.Entry
	DB      *gorm.DB
	Monitor *monitoring.Monitor

	// Host data
	Contexts *lms.Contexts
	Modules  *lms.Modules
	Urls     *lms.Urls
	Hooks    lms.Hooks
	Authors  *access.Authors

	Registry  *component.Registry
	Validator *files.Validator

	// Delivery
	Queue     *queue.Queue
	Settings  *settings.Store
	Pusher    *push.Pusher
	Processor *push.Processor

	Events         *events.Handlers
	FileUpdates    *tasks.FileUpdates
	ContentUpdates *tasks.ContentUpdates
}

// New connects to the database, applying migrations first
func New(ctx context.Context, config *config.Config) (self *App, err error) {
	db, err := model.NewConnection(ctx, config, "syncer")
	if err != nil {
		return
	}
	return NewWithDB(config, db), nil
}

func NewWithDB(config *config.Config, db *gorm.DB) (self *App) {
	self = new(App)
	self.Config = config
	self.Log = logger.NewSublogger("app")
	self.DB = db
	self.Monitor = monitoring.NewMonitor().
		WithMaxRunDelay(config.Tasks.MaxRunDelay)

	self.Contexts = lms.NewContexts(db)
	self.Modules = lms.NewModules(db)
	self.Urls = lms.NewUrls(config.Lms.WwwRoot)
	self.Hooks = lms.NewHooks(&config.Lms)

	roles := access.NewRoleAssignments(db, self.Contexts, config.Access.RoleIds)
	self.Authors = access.NewAuthors(config.Access.AdminIds, roles)

	self.Registry = component.NewRegistry(&component.Deps{
		DB:       db,
		Contexts: self.Contexts,
		Modules:  self.Modules,
		Authors:  self.Authors,
		Hooks:    self.Hooks,
		Urls:     self.Urls,
	})
	self.Validator = files.NewValidator(db, self.Contexts, self.Authors)

	self.Queue = queue.NewQueue(db)
	self.Settings = settings.NewStore(db).
		WithRetry(config.Tasks.StoreMaxElapsedTime, config.Tasks.StoreMaxInterval)
	self.Pusher = push.NewPusher(&config.Push, self.Settings).
		WithMonitor(self.Monitor)
	self.Processor = push.NewProcessor(&config.Push, self.Pusher, self.Queue, self.Settings).
		WithMonitor(self.Monitor)

	self.Events = events.NewHandlers(config, db, self.Registry).
		WithLms(self.Contexts, self.Modules).
		WithValidator(self.Validator).
		WithProcessor(self.Processor).
		WithQueue(self.Queue).
		WithMonitor(self.Monitor)

	self.FileUpdates = tasks.NewFileUpdates(config, db, self.Contexts, self.Validator).
		WithPusher(self.Pusher).
		WithQueue(self.Queue).
		WithSettings(self.Settings).
		WithMonitor(self.Monitor)

	self.ContentUpdates = tasks.NewContentUpdates(config, self.Registry).
		WithPusher(self.Pusher).
		WithQueue(self.Queue).
		WithSettings(self.Settings).
		WithMonitor(self.Monitor)

	return
}

func (self *App) WithPusher(pusher *push.Pusher) *App {
	self.Pusher = pusher
	self.Processor = push.NewProcessor(&self.Config.Push, pusher, self.Queue, self.Settings).
		WithMonitor(self.Monitor)
	self.Events.WithProcessor(self.Processor)
	self.FileUpdates.WithPusher(pusher)
	self.ContentUpdates.WithPusher(pusher)
	return self
}

func (self *App) Scheduler() *tasks.Scheduler {
	return tasks.NewScheduler(self.Config, self.FileUpdates, self.ContentUpdates)
}

func (self *App) WebService() *webservice.Server {
	return webservice.NewServer(self.Config).
		WithMonitor(self.Monitor).
		WithDeps(&webservice.Deps{
			DB:        self.DB,
			Registry:  self.Registry,
			Contexts:  self.Contexts,
			Modules:   self.Modules,
			Urls:      self.Urls,
			Authors:   self.Authors,
			Validator: self.Validator,
			Events:    self.Events,
		})
}

func (self *App) MonitoringServer() *monitoring.Server {
	return monitoring.NewServer(self.Config).
		WithMonitor(self.Monitor)
}

func (self *App) Close() {
	db, err := self.DB.DB()
	if err != nil {
		return
	}
	err = db.Close()
	if err != nil {
		self.Log.WithError(err).Warn("Failed to close database connection")
	}
}
