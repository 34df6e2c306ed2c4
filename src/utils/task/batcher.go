package task

import (
	"math"

	"github.com/gammazero/deque"
)

// Accumulates items and passes them to onFlush in batches of at most batchSize.
// Items of a failed flush stay queued, in order, for the next attempt.
type Batcher[In any] struct {
	queue     deque.Deque[In]
	batchSize int
	onFlush   func([]In) error
}

func NewBatcher[In any](batchSize int, onFlush func([]In) error) (self *Batcher[In]) {
	self = new(Batcher[In])
	if batchSize < 1 {
		batchSize = 1
	}
	self.batchSize = batchSize
	self.onFlush = onFlush

	exp := uint(math.Round(math.Logb(float64(batchSize)))) + 1
	self.queue.SetMinCapacity(exp)
	return
}

// Add queues the item and flushes once a full batch is collected
func (self *Batcher[In]) Add(item In) error {
	self.queue.PushBack(item)
	if self.queue.Len() < self.batchSize {
		return nil
	}
	return self.flushOne()
}

// Flush sends everything that's queued, batch by batch
func (self *Batcher[In]) Flush() error {
	for self.queue.Len() > 0 {
		err := self.flushOne()
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *Batcher[In]) Len() int {
	return self.queue.Len()
}

func (self *Batcher[In]) flushOne() (err error) {
	size := min(self.queue.Len(), self.batchSize)
	if size == 0 {
		return nil
	}

	data := make([]In, 0, size)
	for i := 0; i < size; i++ {
		data = append(data, self.queue.PopFront())
	}

	err = self.onFlush(data)
	if err != nil {
		// Put back in the original order
		for i := len(data) - 1; i >= 0; i-- {
			self.queue.PushFront(data[i])
		}
		return
	}
	return nil
}
