package webservice

import (
	"context"
	"errors"
	"net/http"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/utils/lms"

	"github.com/gin-gonic/gin"
)

var ErrForbidden = errors.New("user can't view the requested content")

// Viewer roles are read per request, assignments change while the server runs
func (self *Server) viewers() *access.RoleAssignments {
	return access.NewRoleAssignments(self.deps.DB, self.deps.Contexts, self.Config.Access.ViewerRoleIds)
}

func (self *Server) canView(ctx context.Context, userId, contextId int64) (bool, error) {
	if self.deps.Authors.IsAdmin(userId) {
		return true, nil
	}
	return self.viewers().Has(ctx, userId, contextId)
}

// Site wide endpoints need the viewer role at the system level
func (self *Server) requireSystem(c *gin.Context) bool {
	system, err := self.deps.Contexts.ForInstance(c.Request.Context(), lms.ContextSystem, 0)
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return false
	}
	return self.require(c, system.Id)
}

// Course endpoints accept viewers of the course or any of its parents
func (self *Server) requireCourse(c *gin.Context, courseId int64) bool {
	course, err := self.deps.Contexts.ForCourse(c.Request.Context(), courseId)
	if errors.Is(err, lms.ErrContextNotFound) {
		self.abort(c, http.StatusNotFound, "coursenotfound", err)
		return false
	}
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return false
	}
	return self.require(c, course.Id)
}

func (self *Server) require(c *gin.Context, contextId int64) bool {
	ok, err := self.canView(c.Request.Context(), userId(c), contextId)
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return false
	}
	if !ok {
		self.abort(c, http.StatusForbidden, "nopermissions", ErrForbidden)
		return false
	}
	return true
}
