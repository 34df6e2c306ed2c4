package monitoring

import (
	"net/http"
	"time"

	"github.com/lms-ally/syncer/src/utils/monitoring/report"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and exposes counters of the syncer
type Monitor struct {
	Report    report.Report
	collector *Collector

	// Scheduled runs are expected at least this often, 0 disables the check
	maxRunDelay time.Duration
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:  &report.RunReport{},
		Ally: &report.AllyReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)
	return
}

func (self *Monitor) WithMaxRunDelay(v time.Duration) *Monitor {
	self.maxRunDelay = v
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func (self *Monitor) fill() {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))
}

// IsOK is false when a scheduled job hasn't finished for too long
func (self *Monitor) IsOK() bool {
	if self.maxRunDelay <= 0 {
		return true
	}

	now := time.Now()
	started := time.Unix(self.Report.Run.State.StartTimestamp.Load(), 0)
	if now.Sub(started) < self.maxRunDelay {
		return true
	}

	for _, last := range []int64{
		self.Report.Ally.State.LastFileRunTimestamp.Load(),
		self.Report.Ally.State.LastContentRunTimestamp.Load(),
	} {
		if now.Sub(time.Unix(last, 0)) > self.maxRunDelay {
			return false
		}
	}
	return true
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.fill()
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
