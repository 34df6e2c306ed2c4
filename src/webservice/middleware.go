package webservice

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lms-ally/syncer/src/webservice/response"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/sirupsen/logrus"
	"github.com/teivah/onecontext"
)

const userIdKey = "user_id"

var (
	ErrNotConfigured  = errors.New("query surface has no token secret configured")
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidSubject = errors.New("token subject isn't a user id")
)

// Requests end when the client leaves, the server stops or the timeout passes
func (self *Server) onRequest(c *gin.Context) {
	self.monitor.GetReport().Ally.State.WebServiceRequests.Inc()

	ctx, cancel := onecontext.Merge(c.Request.Context(), self.Ctx)
	defer cancel()

	if self.Config.WebService.RequestTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, self.Config.WebService.RequestTimeout)
		defer cancelTimeout()
	}
	c.Request = c.Request.WithContext(ctx)

	self.deps.Authors.Reset()

	start := time.Now()
	c.Next()

	self.log(c).
		WithField("status", c.Writer.Status()).
		WithField("duration", time.Since(start).String()).
		Debug("Request handled")
}

// Bearer token signed with the shared secret, subject is the calling user
func (self *Server) onAuthenticate(c *gin.Context) {
	secret := self.Config.WebService.TokenSecret
	if secret == "" {
		self.abort(c, http.StatusServiceUnavailable, "notconfigured", ErrNotConfigured)
		return
	}

	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		self.abort(c, http.StatusUnauthorized, "invalidtoken", ErrMissingToken)
		return
	}

	token, err := jwt.Parse([]byte(raw), jwt.WithVerify(jwa.HS256, []byte(secret)), jwt.WithValidate(true))
	if err != nil {
		self.abort(c, http.StatusUnauthorized, "invalidtoken", err)
		return
	}

	userId, err := strconv.ParseInt(token.Subject(), 10, 64)
	if err != nil || userId <= 0 {
		self.abort(c, http.StatusUnauthorized, "invalidtoken", ErrInvalidSubject)
		return
	}

	c.Set(userIdKey, userId)
	c.Next()
}

func userId(c *gin.Context) int64 {
	return c.GetInt64(userIdKey)
}

func (self *Server) log(c *gin.Context) *logrus.Entry {
	return self.Log.WithField("method", c.Request.Method).
		WithField("path", c.FullPath()).
		WithField("user_id", userId(c))
}

func (self *Server) abort(c *gin.Context, status int, code string, err error) {
	self.abortWith(c, status, &response.Error{ErrorCode: code, Message: err.Error()})
}

func (self *Server) abortWith(c *gin.Context, status int, body *response.Error) {
	self.monitor.GetReport().Ally.Errors.WebServiceErrors.Inc()

	entry := self.log(c).WithField("status", status).WithField("errorcode", body.ErrorCode)
	if status >= http.StatusInternalServerError {
		entry.WithField("message", body.Message).Error("Request failed")
	} else {
		entry.WithField("message", body.Message).Debug("Request rejected")
	}

	c.AbortWithStatusJSON(status, body)
}
