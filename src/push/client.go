package push

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrNotConfigured = errors.New("push endpoint is not configured")

// Client posts batches of payloads to the configured endpoint
type Client struct {
	config  *config.Push
	log     *logrus.Entry
	client  *resty.Client
	limiter *rate.Limiter
}

func NewClient(config *config.Push) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("push-client")

	if config.RequestsPerSecond > 0 {
		self.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	self.client = resty.New().
		SetDebug(config.Debug).
		SetLogger(newRestyLogger()).
		SetTimeout(config.Timeout).
		SetHeader("User-Agent", "ally-syncer").
		SetHeader("Content-Type", "application/json").
		SetTransport(self.createTransport()).
		SetRetryCount(config.RetryCount).
		AddRetryCondition(self.onRetryCondition).
		OnBeforeRequest(self.onRateLimit).
		OnBeforeRequest(self.onAuthorize).
		OnAfterResponse(self.onStatusToError)
	return
}

func (self *Client) createTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   self.config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		ForceAttemptHTTP2:     true,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   self.config.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
	}
}

// Token identifying the sender, signed with the shared secret
func (self *Client) token() (string, error) {
	now := time.Now()
	t := jwt.New()
	err := t.Set(jwt.IssuerKey, self.config.Key)
	if err != nil {
		return "", err
	}
	err = t.Set(jwt.IssuedAtKey, now)
	if err != nil {
		return "", err
	}
	err = t.Set(jwt.ExpirationKey, now.Add(self.config.TokenTTL))
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(t, jwa.HS256, []byte(self.config.Secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func (self *Client) onAuthorize(c *resty.Client, req *resty.Request) error {
	token, err := self.token()
	if err != nil {
		return fmt.Errorf("failed to sign push token: %w", err)
	}
	req.SetAuthToken(token)
	return nil
}

// Blocks till the request is possible or ctx gets canceled
func (self *Client) onRateLimit(c *resty.Client, req *resty.Request) (err error) {
	if self.limiter == nil {
		return nil
	}
	err = self.limiter.Wait(req.Context())
	if err != nil {
		self.log.WithError(err).Error("Rate limiting failed")
	}
	return
}

// Converts HTTP status to errors
func (self *Client) onStatusToError(c *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return fmt.Errorf("unexpected status: %s", resp.Status())
}

// Retry request only upon server errors
func (self *Client) onRetryCondition(resp *resty.Response, err error) bool {
	return resp != nil && resp.StatusCode() >= 500
}

// Send posts one batch
func (self *Client) Send(ctx context.Context, payloads []Payload) (err error) {
	if !self.config.IsValid() {
		return ErrNotConfigured
	}

	_, err = self.client.R().
		SetContext(ctx).
		SetBody(payloads).
		Post(self.config.Url)
	return
}

// Transforms resty logs to debug
type restyLogger struct {
	log *logrus.Entry
}

func newRestyLogger() *restyLogger {
	return &restyLogger{log: logger.NewSublogger("push-resty")}
}

func (self *restyLogger) Errorf(format string, v ...interface{}) {
	self.log.Debugf(format, v...)
}

func (self *restyLogger) Warnf(format string, v ...interface{}) {
	self.log.Debugf(format, v...)
}

func (self *restyLogger) Debugf(format string, v ...interface{}) {
	self.log.Debugf(format, v...)
}
