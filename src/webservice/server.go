package webservice

import (
	"context"
	"net/http"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/events"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/task"
	"github.com/lms-ally/syncer/src/webservice/request"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Collaborators used by the handlers
type Deps struct {
	DB       *gorm.DB
	Registry *component.Registry
	Contexts *lms.Contexts
	Modules  *lms.Modules
	Urls     *lms.Urls

	Authors   *access.Authors
	Validator *files.Validator
	Events    *events.Handlers
}

// Read-only query surface of the syncer, plus the endpoint receiving lifecycle events
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	deps    *Deps
	monitor *monitoring.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)
	self.monitor = monitoring.NewMonitor()

	self.Task = task.NewTask(config, "webservice").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:    self.Config.WebService.ListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor *monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

// WithDeps registers routes served with the collaborators
func (self *Server) WithDeps(deps *Deps) *Server {
	self.deps = deps

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := request.RegisterValidations(v)
		if err != nil {
			self.Log.WithError(err).Error("Failed to register validations")
		}
	}

	v1 := self.Router.Group("v1", self.onRequest, self.onAuthenticate)
	{
		v1.GET("files", self.onGetFiles)
		v1.GET("files/:id", self.onGetFile)
		v1.GET("courses/files", self.onGetCourseFiles)
		v1.GET("file-updates", self.onGetFileUpdates)
		v1.GET("content", self.onGetContent)
		v1.POST("events", self.onPostEvent)
	}
	return self
}

func (self *Server) run() (err error) {
	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start query server")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown query server")
		return
	}
}
