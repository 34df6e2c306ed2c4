package webservice

import (
	"errors"
	"net/http"

	"github.com/lms-ally/syncer/src/events"

	"github.com/gin-gonic/gin"
)

var ErrAdminOnly = errors.New("only site administrators can report events")

// Lifecycle notifications sent by the host
func (self *Server) onPostEvent(c *gin.Context) {
	if !self.deps.Authors.IsAdmin(userId(c)) {
		self.abort(c, http.StatusForbidden, "nopermissions", ErrAdminOnly)
		return
	}

	var event events.Event
	err := c.ShouldBindJSON(&event)
	if err != nil {
		self.abort(c, http.StatusBadRequest, "invalidparameter", err)
		return
	}

	err = self.deps.Events.Dispatch(c.Request.Context(), &event)
	if errors.Is(err, events.ErrUnknownEvent) || errors.Is(err, events.ErrMissingField) {
		self.abort(c, http.StatusBadRequest, "invalidevent", err)
		return
	}
	if err != nil {
		self.abort(c, http.StatusInternalServerError, "internalerror", err)
		return
	}

	c.Status(http.StatusAccepted)
}
