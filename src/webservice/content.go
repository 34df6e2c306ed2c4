package webservice

import (
	"errors"
	"net/http"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/webservice/request"
	"github.com/lms-ally/syncer/src/webservice/response"

	"github.com/gin-gonic/gin"
)

func (self *Server) onGetContent(c *gin.Context) {
	var in request.GetContent
	err := c.ShouldBindQuery(&in)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	ident := &response.Error{
		Component: in.Component,
		Table:     in.Table,
		Field:     in.Field,
		Id:        in.Id,
	}
	notFound := &component.NotFoundError{Component: in.Component, Table: in.Table, Field: in.Field, Id: in.Id}

	adapter, err := self.deps.Registry.HTMLContent(in.Component)
	if err != nil {
		self.contentError(c, ident, err)
		return
	}

	ctx := c.Request.Context()
	installed, err := adapter.IsInstalled(ctx)
	if err != nil {
		self.contentError(c, ident, err)
		return
	}
	if !installed {
		self.contentError(c, ident, notFound)
		return
	}

	// Permissions are checked in the course owning the item, the client's course id is only a hint
	courseId, err := adapter.ResolveCourseId(ctx, in.Id, in.Table, in.Field)
	if err != nil {
		self.contentError(c, ident, err)
		return
	}
	if courseId != in.CourseId {
		self.contentError(c, ident, notFound)
		return
	}

	if !self.requireCourse(c, courseId) {
		return
	}

	content, err := adapter.HTMLContent(ctx, in.Id, in.Table, in.Field, courseId)
	if err != nil {
		self.contentError(c, ident, err)
		return
	}
	if content == nil {
		self.contentError(c, ident, notFound)
		return
	}

	c.JSON(http.StatusOK, response.NewContent(content))
}

// Identity errors are reported together with the requested identity
func (self *Server) contentError(c *gin.Context, ident *response.Error, err error) {
	var (
		notFound     *component.NotFoundError
		invalidTable *component.InvalidTableError
		invalidField *component.InvalidFieldError

		status int
	)

	switch {
	case errors.As(err, &notFound):
		status, ident.ErrorCode = http.StatusNotFound, "invalidcomponentident"
	case errors.As(err, &invalidTable):
		status, ident.ErrorCode = http.StatusBadRequest, "invalidtable"
	case errors.As(err, &invalidField):
		status, ident.ErrorCode = http.StatusBadRequest, "invalidfield"
	case errors.Is(err, component.ErrUnknownComponent), errors.Is(err, component.ErrNoHTMLSupport):
		status, ident.ErrorCode = http.StatusBadRequest, "invalidcomponent"
	default:
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	ident.Message = err.Error()
	self.abortWith(c, status, ident)
}
