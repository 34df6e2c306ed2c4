package push

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"

	"github.com/sirupsen/logrus"
)

// Sender delivers one batch
type Sender interface {
	Send(ctx context.Context, payloads []Payload) error
}

// Pusher is the single way changes leave the syncer. Payloads are split into batches, one request per batch.
type Pusher struct {
	log       *logrus.Entry
	sender    Sender
	settings  *settings.Store
	monitor   *monitoring.Monitor
	batchSize int
}

func NewPusher(config *config.Push, settings *settings.Store) (self *Pusher) {
	self = new(Pusher)
	self.log = logger.NewSublogger("pusher")
	self.settings = settings
	self.batchSize = config.GetBatchSize()
	self.sender = NewClient(config)
	self.monitor = monitoring.NewMonitor()
	return
}

func (self *Pusher) WithSender(sender Sender) *Pusher {
	self.sender = sender
	return self
}

func (self *Pusher) WithMonitor(monitor *monitoring.Monitor) *Pusher {
	self.monitor = monitor
	return self
}

func (self *Pusher) BatchSize() int {
	return self.batchSize
}

// Send delivers payloads in order. Stops on the first failed batch, batches sent before it stay delivered.
func (self *Pusher) Send(ctx context.Context, payloads []Payload) (err error) {
	for start := 0; start < len(payloads); start += self.batchSize {
		end := min(start+self.batchSize, len(payloads))
		batch := payloads[start:end]

		err = self.sender.Send(ctx, batch)
		if err != nil {
			self.monitor.GetReport().Ally.Errors.PushFailures.Inc()
			self.log.WithError(err).WithField("len", len(batch)).Warn("Failed to push batch")
			return
		}

		self.monitor.GetReport().Ally.State.BatchesSent.Inc()
		self.monitor.GetReport().Ally.State.PayloadsSent.Add(uint64(len(batch)))
		self.log.WithField("len", len(batch)).Debug("Batch pushed")

		self.resumeLive(ctx)
	}
	return nil
}

// Endpoint accepted a batch, live pushes may be resumed
func (self *Pusher) resumeLive(ctx context.Context) {
	cliOnly, err := self.settings.IsCliOnly(ctx)
	if err != nil {
		self.log.WithError(err).Warn("Failed to check push mode")
		return
	}
	if !cliOnly {
		return
	}

	err = self.settings.SetCliOnly(ctx, false)
	if err != nil {
		self.log.WithError(err).Warn("Failed to resume live pushes")
		return
	}
	self.monitor.GetReport().Ally.State.CliOnly.Store(false)
	self.log.Info("Endpoint is healthy again, live pushes resumed")
}
