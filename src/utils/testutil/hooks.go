package testutil

import (
	"context"
	"sync"

	"github.com/lms-ally/syncer/src/utils/lms"
)

// RecordingHooks remembers every notification sent to the host
type RecordingHooks struct {
	mtx    sync.Mutex
	Events []lms.HookRequest
}

func (self *RecordingHooks) record(r lms.HookRequest) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.Events = append(self.Events, r)
	return nil
}

func (self *RecordingHooks) CourseModuleUpdated(ctx context.Context, courseId, courseModuleId int64, moduleName string) error {
	return self.record(lms.HookRequest{Event: lms.HookCourseModuleUpdated, CourseId: courseId, CourseModuleId: courseModuleId, ModuleName: moduleName})
}

func (self *RecordingHooks) CourseUpdated(ctx context.Context, courseId int64) error {
	return self.record(lms.HookRequest{Event: lms.HookCourseUpdated, CourseId: courseId})
}

func (self *RecordingHooks) RebuildCourseCache(ctx context.Context, courseId int64) error {
	return self.record(lms.HookRequest{Event: lms.HookRebuildCourseCache, CourseId: courseId})
}

func (self *RecordingHooks) Names() (out []lms.HookEvent) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	for _, e := range self.Events {
		out = append(out, e.Event)
	}
	return
}
