package files

import (
	"context"
	"errors"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"

	"gorm.io/gorm"
)

// Validator decides whether a stored file gets delivered
type Validator struct {
	db       *gorm.DB
	contexts *lms.Contexts
	authors  *access.Authors

	checkSection bool
}

func NewValidator(db *gorm.DB, contexts *lms.Contexts, authors *access.Authors) *Validator {
	return &Validator{
		db:           db,
		contexts:     contexts,
		authors:      authors,
		checkSection: true,
	}
}

// Role assignments are read again on the next validation
func (self *Validator) Reset() {
	self.authors.Reset()
}

// Section files stay valid after the section is removed, used when handling section deletion
func (self *Validator) WithoutSectionCheck() *Validator {
	out := *self
	out.checkSection = false
	return &out
}

// Validate returns the course of the file when it may be delivered.
// Files in whitelisted areas don't depend on the uploader, others need to come from the system or an approved author.
// Either way the file needs to live in a course.
func (self *Validator) Validate(ctx context.Context, f *lms.File) (courseId int64, ok bool, err error) {
	if !Whitelisted(f.Component, f.FileArea) && f.UserId != nil && *f.UserId != 0 {
		ok, err = self.authors.IsApproved(ctx, *f.UserId, f.ContextId)
		if err != nil || !ok {
			return
		}
	}

	courseId, err = self.contexts.CourseId(ctx, f.ContextId)
	if errors.Is(err, lms.ErrNotInCourse) || errors.Is(err, lms.ErrContextNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return
	}

	if self.checkSection && model.FileArea(f.Component, f.FileArea) == "course~section" {
		ok, err = self.sectionExists(ctx, courseId, f.ItemId)
		if err != nil || !ok {
			return 0, ok, err
		}
	}

	return courseId, true, nil
}

func (self *Validator) sectionExists(ctx context.Context, courseId, sectionId int64) (bool, error) {
	var count int64
	err := self.db.WithContext(ctx).
		Model(&lms.CourseSection{}).
		Where("id = ? AND course = ?", sectionId, courseId).
		Count(&count).
		Error
	return count > 0, err
}
