package lms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

var (
	ErrContextNotFound = errors.New("context not found")
	ErrNotInCourse     = errors.New("context is outside of any course")
)

// Contexts reads the context tree, caching rows.
// Bulk Preload fetches a whole page worth of contexts and their ancestors in two queries.
type Contexts struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewContexts(db *gorm.DB) (self *Contexts) {
	self = new(Contexts)
	self.db = db
	self.cache = cache.New(30*time.Minute, 10*time.Minute)
	return
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func instanceKey(level ContextLevel, instanceId int64) string {
	return fmt.Sprintf("%d/%d", level, instanceId)
}

func (self *Contexts) put(c *Context) {
	self.cache.SetDefault(idKey(c.Id), c)
	self.cache.SetDefault(instanceKey(c.ContextLevel, c.InstanceId), c)
}

// Ids from the path, nearest ancestor first, without the context itself
func (c *Context) AncestorIds() (out []int64) {
	parts := strings.Split(strings.Trim(c.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		id, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || id == c.Id {
			continue
		}
		out = append(out, id)
	}
	return
}

func (self *Contexts) Get(ctx context.Context, id int64) (out *Context, err error) {
	if v, ok := self.cache.Get(idKey(id)); ok {
		return v.(*Context), nil
	}

	out = new(Context)
	err = self.db.WithContext(ctx).Where("id = ?", id).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrContextNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	self.put(out)
	return
}

func (self *Contexts) ForInstance(ctx context.Context, level ContextLevel, instanceId int64) (out *Context, err error) {
	if v, ok := self.cache.Get(instanceKey(level, instanceId)); ok {
		return v.(*Context), nil
	}

	out = new(Context)
	err = self.db.WithContext(ctx).
		Where("contextlevel = ? AND instanceid = ?", level, instanceId).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: level %d instance %d", ErrContextNotFound, level, instanceId)
	}
	if err != nil {
		return nil, err
	}

	self.put(out)
	return
}

func (self *Contexts) ForCourse(ctx context.Context, courseId int64) (*Context, error) {
	return self.ForInstance(ctx, ContextCourse, courseId)
}

func (self *Contexts) ForModule(ctx context.Context, courseModuleId int64) (*Context, error) {
	return self.ForInstance(ctx, ContextModule, courseModuleId)
}

// Preload caches the given contexts and all of their ancestors
func (self *Contexts) Preload(ctx context.Context, ids []int64) (err error) {
	loaded, err := self.load(ctx, self.missing(ids))
	if err != nil {
		return
	}

	var ancestors []int64
	for _, c := range loaded {
		ancestors = append(ancestors, c.AncestorIds()...)
	}
	_, err = self.load(ctx, self.missing(ancestors))
	return
}

func (self *Contexts) missing(ids []int64) (out []int64) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := self.cache.Get(idKey(id)); !ok {
			out = append(out, id)
		}
	}
	return
}

func (self *Contexts) load(ctx context.Context, ids []int64) (out []*Context, err error) {
	if len(ids) == 0 {
		return
	}
	err = self.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	if err != nil {
		return
	}
	for _, c := range out {
		self.put(c)
	}
	return
}

// CourseContext returns the context itself or the ancestor that belongs to a course
func (self *Contexts) CourseContext(ctx context.Context, contextId int64) (out *Context, err error) {
	c, err := self.Get(ctx, contextId)
	if err != nil {
		return
	}
	if c.ContextLevel == ContextCourse {
		return c, nil
	}
	if c.ContextLevel == ContextSystem || c.ContextLevel == ContextUser || c.ContextLevel == ContextCoursecat {
		return nil, ErrNotInCourse
	}

	for _, id := range c.AncestorIds() {
		var ancestor *Context
		ancestor, err = self.Get(ctx, id)
		if err != nil {
			return
		}
		if ancestor.ContextLevel == ContextCourse {
			return ancestor, nil
		}
	}
	return nil, ErrNotInCourse
}

// CourseId of the course the context belongs to
func (self *Contexts) CourseId(ctx context.Context, contextId int64) (int64, error) {
	c, err := self.CourseContext(ctx, contextId)
	if err != nil {
		return 0, err
	}
	return c.InstanceId, nil
}
