package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx            context.Context
	maxElapsedTime time.Duration
	maxInterval    time.Duration
	maxRetries     uint64
	onError        func(error)
}

func NewRetry() *Retry {
	return &Retry{
		ctx:     context.Background(),
		onError: func(error) {},
	}
}

func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// 0 means no limit on the number of attempts
func (self *Retry) WithMaxRetries(maxRetries uint64) *Retry {
	self.maxRetries = maxRetries
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

func (self *Retry) WithOnError(v func(error)) *Retry {
	self.onError = v
	return self
}

func (self *Retry) onNotify(err error, duration time.Duration) {
	self.onError(err)
}

// Run retries f until it succeeds, returns a permanent error or the limits are reached
func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	if self.maxInterval > 0 {
		b.MaxInterval = self.maxInterval
		if b.InitialInterval > b.MaxInterval {
			b.InitialInterval = b.MaxInterval
		}
	}

	var policy backoff.BackOff = b
	if self.maxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, self.maxRetries)
	}

	return backoff.RetryNotify(f, backoff.WithContext(policy, self.ctx), self.onNotify)
}

// Permanent stops retrying and returns err
func Permanent(err error) error {
	return backoff.Permanent(err)
}
