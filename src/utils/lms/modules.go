package lms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

var ErrCourseModuleNotFound = errors.New("course module not found")

// Modules knows which activity module types are installed
type Modules struct {
	db *gorm.DB

	mtx       sync.Mutex
	installed map[string]int64
}

func NewModules(db *gorm.DB) (self *Modules) {
	self = new(Modules)
	self.db = db
	return
}

func (self *Modules) load(ctx context.Context) (err error) {
	if self.installed != nil {
		return
	}

	var modules []Module
	err = self.db.WithContext(ctx).Find(&modules).Error
	if err != nil {
		return
	}

	self.installed = make(map[string]int64, len(modules))
	for _, m := range modules {
		self.installed[m.Name] = m.Id
	}
	return
}

// IsInstalled loads the list of modules once and answers from memory afterwards
func (self *Modules) IsInstalled(ctx context.Context, name string) (bool, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := self.installed[name]
	return ok, nil
}

// Names of all installed modules
func (self *Modules) Names(ctx context.Context) (out []string, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err = self.load(ctx)
	if err != nil {
		return
	}
	for name := range self.installed {
		out = append(out, name)
	}
	return
}

// CourseModule finds where the instance of the module is placed
func (self *Modules) CourseModule(ctx context.Context, name string, instanceId int64) (out *CourseModule, err error) {
	out = new(CourseModule)
	err = self.db.WithContext(ctx).
		Select(TableCourseModules+".*").
		Joins("JOIN "+TableModules+" m ON m.id = "+TableCourseModules+".module").
		Where("m.name = ? AND "+TableCourseModules+".instance = ?", name, instanceId).
		First(out).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrCourseModuleNotFound, name, instanceId)
	}
	if err != nil {
		return nil, err
	}
	return
}

// ModuleCourseModule is a course module with the name of its module type
type ModuleCourseModule struct {
	CourseModule
	Name string `gorm:"column:name"`
}

// ById returns the course module with its module name
func (self *Modules) ById(ctx context.Context, courseModuleId int64) (out *ModuleCourseModule, err error) {
	out = new(ModuleCourseModule)
	res := self.db.WithContext(ctx).
		Table(TableCourseModules+" cm").
		Select("cm.*, m.name").
		Joins("JOIN "+TableModules+" m ON m.id = cm.module").
		Where("cm.id = ?", courseModuleId).
		Limit(1).
		Scan(out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %d", ErrCourseModuleNotFound, courseModuleId)
	}
	return
}
