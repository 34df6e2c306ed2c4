package lms

import (
	"context"
	"fmt"

	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/task"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Hooks notify the host LMS about changes the syncer made to its data
type Hooks interface {
	// Fires the "course module updated" event for the module
	CourseModuleUpdated(ctx context.Context, courseId, courseModuleId int64, moduleName string) error

	// Fires the "course updated" event
	CourseUpdated(ctx context.Context, courseId int64) error

	// Invalidates the cached rendering of the course
	RebuildCourseCache(ctx context.Context, courseId int64) error
}

type HookEvent string

const (
	HookCourseModuleUpdated HookEvent = "course_module_updated"
	HookCourseUpdated       HookEvent = "course_updated"
	HookRebuildCourseCache  HookEvent = "rebuild_course_cache"
)

type HookRequest struct {
	Event          HookEvent `json:"event"`
	CourseId       int64     `json:"courseid"`
	CourseModuleId int64     `json:"cmid,omitempty"`
	ModuleName     string    `json:"modname,omitempty"`
}

// Calls the endpoint exposed by the host
type WebhookHooks struct {
	config *config.Lms
	log    *logrus.Entry
	client *resty.Client
}

// NewHooks returns hooks that only log when there's no endpoint configured
func NewHooks(config *config.Lms) Hooks {
	if config.HookUrl == "" {
		return &LogHooks{log: logger.NewSublogger("lms-hooks")}
	}
	return NewWebhookHooks(config)
}

func NewWebhookHooks(config *config.Lms) (self *WebhookHooks) {
	self = new(WebhookHooks)
	self.config = config
	self.log = logger.NewSublogger("lms-hooks")
	self.client = resty.New().
		SetTimeout(config.HookTimeout).
		SetHeader("User-Agent", "ally-syncer").
		OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			if resp.IsSuccess() {
				return nil
			}
			return fmt.Errorf("unexpected hook status: %s", resp.Status())
		})
	return
}

func (self *WebhookHooks) call(ctx context.Context, req HookRequest) error {
	return task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.HookMaxElapsedTime).
		WithOnError(func(err error) {
			self.log.WithError(err).WithField("event", req.Event).Warn("Hook failed, retrying")
		}).
		Run(func() error {
			_, err := self.client.R().
				SetContext(ctx).
				SetBody(req).
				Post(self.config.HookUrl)
			return err
		})
}

func (self *WebhookHooks) CourseModuleUpdated(ctx context.Context, courseId, courseModuleId int64, moduleName string) error {
	return self.call(ctx, HookRequest{Event: HookCourseModuleUpdated, CourseId: courseId, CourseModuleId: courseModuleId, ModuleName: moduleName})
}

func (self *WebhookHooks) CourseUpdated(ctx context.Context, courseId int64) error {
	return self.call(ctx, HookRequest{Event: HookCourseUpdated, CourseId: courseId})
}

func (self *WebhookHooks) RebuildCourseCache(ctx context.Context, courseId int64) error {
	return self.call(ctx, HookRequest{Event: HookRebuildCourseCache, CourseId: courseId})
}

type LogHooks struct {
	log *logrus.Entry
}

func (self *LogHooks) CourseModuleUpdated(ctx context.Context, courseId, courseModuleId int64, moduleName string) error {
	self.log.WithField("course", courseId).WithField("cmid", courseModuleId).WithField("modname", moduleName).Info("Course module updated")
	return nil
}

func (self *LogHooks) CourseUpdated(ctx context.Context, courseId int64) error {
	self.log.WithField("course", courseId).Info("Course updated")
	return nil
}

func (self *LogHooks) RebuildCourseCache(ctx context.Context, courseId int64) error {
	self.log.WithField("course", courseId).Info("Course cache rebuild requested")
	return nil
}
