package webservice

import (
	"errors"
	"net/http"

	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/webservice/request"
	"github.com/lms-ally/syncer/src/webservice/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var ErrFileNotFound = errors.New("file not found")

func (self *Server) detector() *files.Detector {
	return files.NewDetector(self.deps.DB, self.deps.Contexts, self.deps.Validator)
}

// Every eligible file of the site
func (self *Server) onGetFiles(c *gin.Context) {
	if !self.requireSystem(c) {
		return
	}

	items, err := self.detector().All(c.Request.Context())
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	c.JSON(http.StatusOK, response.NewFiles(items))
}

func (self *Server) onGetCourseFiles(c *gin.Context) {
	var in request.GetCourseFiles
	err := c.ShouldBindQuery(&in)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	for _, courseId := range in.Ids {
		if !self.requireCourse(c, courseId) {
			return
		}
	}

	items, err := self.detector().WithCourseIds(in.Ids...).All(c.Request.Context())
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	c.JSON(http.StatusOK, response.NewFiles(items))
}

func (self *Server) onGetFile(c *gin.Context) {
	var in request.GetFile
	err := c.ShouldBindUri(&in)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	ctx := c.Request.Context()

	var f lms.File
	err = self.deps.DB.WithContext(ctx).
		Where("pathnamehash = ?", in.Id).
		First(&f).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		self.abort(c, http.StatusNotFound, "filenotfound", ErrFileNotFound)
		return
	}
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	// Files that wouldn't be delivered aren't exposed either
	courseId, ok, err := self.deps.Validator.Validate(ctx, &f)
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}
	if !ok {
		self.abort(c, http.StatusNotFound, "filenotfound", ErrFileNotFound)
		return
	}

	if !self.requireCourse(c, courseId) {
		return
	}

	location, err := self.location(c, &f, courseId)
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	c.JSON(http.StatusOK, response.NewFileDetails(&f, courseId, self.deps.Urls, location))
}

// Module files are shown on the module page, everything else on the course page
func (self *Server) location(c *gin.Context, f *lms.File, courseId int64) (string, error) {
	ctx := c.Request.Context()

	fileContext, err := self.deps.Contexts.Get(ctx, f.ContextId)
	if err != nil {
		return "", err
	}
	if fileContext.ContextLevel != lms.ContextModule {
		return self.deps.Urls.Course(courseId), nil
	}

	cm, err := self.deps.Modules.ById(ctx, fileContext.InstanceId)
	if errors.Is(err, lms.ErrCourseModuleNotFound) {
		return self.deps.Urls.Course(courseId), nil
	}
	if err != nil {
		return "", err
	}
	return self.deps.Urls.ModuleView(cm.Name, cm.Id, nil), nil
}

// Files modified after the timestamp, oldest first
func (self *Server) onGetFileUpdates(c *gin.Context) {
	var in request.GetFileUpdates
	err := c.ShouldBindQuery(&in)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	since, err := push.ParseISO8601(in.Since)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	if !self.requireSystem(c) {
		return
	}

	items, err := self.detector().
		WithSince(since).
		SortBy("timemodified", false).
		All(c.Request.Context())
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	c.JSON(http.StatusOK, response.NewFileUpdates(self.Config.Lms.WwwRoot, items))
}
