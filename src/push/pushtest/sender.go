package pushtest

import (
	"context"
	"sync"

	"github.com/lms-ally/syncer/src/push"
)

// Sender records batches instead of sending them
type Sender struct {
	mtx     sync.Mutex
	batches [][]push.Payload
	calls   int

	// Calls failing with err, 1-based. Empty means all calls fail when err is set.
	failOn map[int]struct{}
	err    error
}

func NewSender() *Sender {
	return &Sender{failOn: make(map[int]struct{})}
}

// WithError makes the sender fail. Without call numbers every call fails.
func (self *Sender) WithError(err error, calls ...int) *Sender {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.err = err
	self.failOn = make(map[int]struct{})
	for _, c := range calls {
		self.failOn[c] = struct{}{}
	}
	return self
}

func (self *Sender) Send(ctx context.Context, payloads []push.Payload) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.calls++
	if self.err != nil {
		_, ok := self.failOn[self.calls]
		if ok || len(self.failOn) == 0 {
			return self.err
		}
	}

	batch := make([]push.Payload, len(payloads))
	copy(batch, payloads)
	self.batches = append(self.batches, batch)
	return nil
}

func (self *Sender) Calls() int {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.calls
}

// Batches that were accepted
func (self *Sender) Batches() [][]push.Payload {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	out := make([][]push.Payload, len(self.batches))
	copy(out, self.batches)
	return out
}

func (self *Sender) Payloads() (out []push.Payload) {
	for _, batch := range self.Batches() {
		out = append(out, batch...)
	}
	return
}

func (self *Sender) EntityIds() (out []string) {
	for _, p := range self.Payloads() {
		out = append(out, p.GetEntityId())
	}
	return
}

// Events returns event names of accepted payloads
func (self *Sender) Events() (out []string) {
	for _, p := range self.Payloads() {
		switch v := p.(type) {
		case *push.ContentPayload:
			out = append(out, v.EventName)
		case *push.FilePayload:
			out = append(out, v.EventName)
		}
	}
	return
}
