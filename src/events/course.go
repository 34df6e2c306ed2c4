package events

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/lms"
)

const courseComponent = "course"

func (self *Handlers) onCourseCreated(ctx context.Context, event *Event) error {
	course, err := self.registry.HTMLContent(courseComponent)
	if err != nil {
		return err
	}

	// Summary and every section created together with the course
	items, err := course.CourseHTMLContentItems(ctx, event.ObjectId)
	if err != nil {
		return err
	}
	return self.push(ctx, event, items...)
}

func (self *Handlers) onCourseUpdated(ctx context.Context, event *Event) error {
	course, err := self.registry.HTMLContent(courseComponent)
	if err != nil {
		return err
	}

	item, err := course.HTMLContent(ctx, event.ObjectId, lms.TableCourse, "summary", event.ObjectId)
	if err != nil {
		return err
	}
	return self.push(ctx, event, item)
}

func (self *Handlers) onCourseDeleted(ctx context.Context, event *Event) error {
	course, err := self.registry.HTMLContent(courseComponent)
	if err != nil {
		return err
	}

	item, err := course.HTMLContentDeleted(ctx, event.ObjectId, lms.TableCourse, "summary", event.ObjectId, event.TimeCreated)
	if err != nil {
		return err
	}
	return self.queueDeletion(ctx, event, item)
}

func (self *Handlers) onSectionChanged(ctx context.Context, event *Event) error {
	course, err := self.registry.HTMLContent(courseComponent)
	if err != nil {
		return err
	}

	item, err := course.HTMLContent(ctx, event.ObjectId, lms.TableCourseSections, "summary", event.CourseId)
	if err != nil {
		return err
	}
	return self.push(ctx, event, item)
}

func (self *Handlers) onSectionDeleted(ctx context.Context, event *Event) error {
	course, err := self.registry.HTMLContent(courseComponent)
	if err != nil {
		return err
	}

	item, err := course.HTMLContentDeleted(ctx, event.ObjectId, lms.TableCourseSections, "summary", event.CourseId, event.TimeCreated)
	if err != nil {
		return err
	}
	return self.queueDeletion(ctx, event, item)
}
