package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const DefaultPageSize = 5000

var sortFields = map[string]struct{}{
	"id":           {},
	"timecreated":  {},
	"timemodified": {},
	"filename":     {},
}

// Detector walks the file table page by page and yields files eligible for delivery.
// Iteration can be restarted with Rewind, which queries the storage again.
type Detector struct {
	db        *gorm.DB
	contexts  *lms.Contexts
	validator *Validator
	log       *logrus.Entry

	// Filters
	since     int64
	contextId int64
	component string
	fileArea  string
	itemId    *int64
	mimeTypes []string
	courseIds []int64

	sortField string
	sortDesc  bool
	pageSize  int

	// Iteration state
	page    []*lms.File
	pageIdx int
	offset  int
	last    bool
	current *model.FileItem
	err     error
}

func NewDetector(db *gorm.DB, contexts *lms.Contexts, validator *Validator) *Detector {
	return &Detector{
		db:        db,
		contexts:  contexts,
		validator: validator,
		log:       logger.NewSublogger("detector"),
		sortField: "id",
		pageSize:  DefaultPageSize,
	}
}

// Only files modified after the timestamp
func (self *Detector) WithSince(since int64) *Detector {
	self.since = since
	return self
}

func (self *Detector) WithContext(contextId int64) *Detector {
	self.contextId = contextId
	return self
}

func (self *Detector) WithComponent(component string) *Detector {
	self.component = component
	return self
}

func (self *Detector) WithFileArea(fileArea string) *Detector {
	self.fileArea = fileArea
	return self
}

func (self *Detector) WithItemId(itemId int64) *Detector {
	self.itemId = &itemId
	return self
}

func (self *Detector) WithMimeTypes(mimeTypes ...string) *Detector {
	self.mimeTypes = mimeTypes
	return self
}

// Only files in the courses or their modules and blocks
func (self *Detector) WithCourseIds(courseIds ...int64) *Detector {
	self.courseIds = courseIds
	return self
}

// Unknown fields are ignored, ties are broken by id
func (self *Detector) SortBy(field string, desc bool) *Detector {
	if _, ok := sortFields[field]; !ok {
		self.log.WithField("field", field).Warn("Unsupported sort field, sorting by id")
		field = "id"
	}
	self.sortField = field
	self.sortDesc = desc
	return self
}

func (self *Detector) WithPageSize(pageSize int) *Detector {
	if pageSize > 0 {
		self.pageSize = pageSize
	}
	return self
}

func (self *Detector) query(ctx context.Context) (*gorm.DB, error) {
	q := self.db.WithContext(ctx).
		Table(lms.TableFiles+" f").
		Select("f.*").
		Joins("JOIN "+lms.TableContext+" c ON c.id = f.contextid").
		Where("f.filename != ?", ".").
		Where("c.contextlevel NOT IN ?", []lms.ContextLevel{lms.ContextSystem, lms.ContextUser, lms.ContextCoursecat})

	if self.since > 0 {
		q = q.Where("f.timemodified > ?", self.since)
	}
	if self.contextId > 0 {
		q = q.Where("f.contextid = ?", self.contextId)
	}
	if self.component != "" {
		q = q.Where("f.component = ?", self.component)
	}
	if self.fileArea != "" {
		q = q.Where("f.filearea = ?", self.fileArea)
	}
	if self.itemId != nil {
		q = q.Where("f.itemid = ?", *self.itemId)
	}
	if len(self.mimeTypes) > 0 {
		q = q.Where("f.mimetype IN ?", self.mimeTypes)
	}

	if len(self.courseIds) > 0 {
		var (
			conditions []string
			args       []any
		)
		for _, courseId := range self.courseIds {
			c, err := self.contexts.ForCourse(ctx, courseId)
			if err != nil {
				// Course without context has no files
				continue
			}
			conditions = append(conditions, "c.id = ? OR c.path LIKE ?")
			args = append(args, c.Id, c.Path+"/%")
		}
		if len(conditions) == 0 {
			return nil, nil
		}
		q = q.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	direction := "ASC"
	if self.sortDesc {
		direction = "DESC"
	}
	return q.Order(fmt.Sprintf("f.%s %s, f.id %s", self.sortField, direction, direction)), nil
}

// Rewind starts the iteration from the beginning
func (self *Detector) Rewind() {
	self.page = nil
	self.pageIdx = 0
	self.offset = 0
	self.last = false
	self.current = nil
	self.err = nil
}

func (self *Detector) fetchPage(ctx context.Context) (err error) {
	self.page = nil
	self.pageIdx = 0

	q, err := self.query(ctx)
	if err != nil {
		return
	}
	if q == nil {
		self.last = true
		return
	}

	err = q.Offset(self.offset).Limit(self.pageSize).Find(&self.page).Error
	if err != nil {
		return
	}
	self.offset += len(self.page)
	self.last = len(self.page) < self.pageSize

	// One query for all the contexts of the page instead of one per file
	contextIds := make([]int64, 0, len(self.page))
	for _, f := range self.page {
		contextIds = append(contextIds, f.ContextId)
	}
	return self.contexts.Preload(ctx, contextIds)
}

// Next advances to the next eligible file, false when there are no more files or on error
func (self *Detector) Next(ctx context.Context) bool {
	if self.err != nil {
		return false
	}

	for {
		if self.pageIdx >= len(self.page) {
			if self.last {
				self.current = nil
				return false
			}
			self.err = self.fetchPage(ctx)
			if self.err != nil {
				self.current = nil
				return false
			}
			continue
		}

		f := self.page[self.pageIdx]
		self.pageIdx++

		courseId, ok, err := self.validator.Validate(ctx, f)
		if err != nil {
			self.err = err
			self.current = nil
			return false
		}
		if !ok {
			continue
		}

		self.current = NewFileItem(f, courseId)
		return true
	}
}

func (self *Detector) Current() *model.FileItem {
	return self.current
}

func (self *Detector) Err() error {
	return self.err
}

// All rewinds and collects every eligible file
func (self *Detector) All(ctx context.Context) (out []*model.FileItem, err error) {
	self.Rewind()
	for self.Next(ctx) {
		out = append(out, self.Current())
	}
	return out, self.Err()
}

func NewFileItem(f *lms.File, courseId int64) *model.FileItem {
	return &model.FileItem{
		Id:           f.Id,
		PathNameHash: f.PathNameHash,
		ContentHash:  f.ContentHash,
		ContextId:    f.ContextId,
		Component:    f.Component,
		FileArea:     f.FileArea,
		ItemId:       f.ItemId,
		FilePath:     f.FilePath,
		FileName:     f.FileName,
		MimeType:     f.MimeType,
		FileSize:     f.FileSize,
		UserId:       f.UserId,
		TimeCreated:  f.TimeCreated,
		TimeModified: f.TimeModified,
		CourseId:     courseId,
	}
}
