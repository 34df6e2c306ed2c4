package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	PushFailures        *prometheus.Desc
	LivePushFailures    *prometheus.Desc
	FileTaskFailures    *prometheus.Desc
	ContentTaskFailures *prometheus.Desc
	EventFailures       *prometheus.Desc
	WebServiceErrors    *prometheus.Desc

	// State
	BatchesSent        *prometheus.Desc
	PayloadsSent       *prometheus.Desc
	ContentPushedLive  *prometheus.Desc
	FilesPushedLive    *prometheus.Desc
	ContentQueued      *prometheus.Desc
	DeletionsQueued    *prometheus.Desc
	QueueRowsDelivered *prometheus.Desc
	FilesDelivered     *prometheus.Desc
	EventsHandled      *prometheus.Desc
	WebServiceRequests *prometheus.Desc
	FileWatermark      *prometheus.Desc
	ContentWatermark   *prometheus.Desc
	CliOnly            *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		PushFailures:        prometheus.NewDesc("ally_push_failures", "", nil, nil),
		LivePushFailures:    prometheus.NewDesc("ally_live_push_failures", "", nil, nil),
		FileTaskFailures:    prometheus.NewDesc("ally_file_task_failures", "", nil, nil),
		ContentTaskFailures: prometheus.NewDesc("ally_content_task_failures", "", nil, nil),
		EventFailures:       prometheus.NewDesc("ally_event_failures", "", nil, nil),
		WebServiceErrors:    prometheus.NewDesc("ally_webservice_errors", "", nil, nil),

		// State
		BatchesSent:        prometheus.NewDesc("ally_batches_sent", "", nil, nil),
		PayloadsSent:       prometheus.NewDesc("ally_payloads_sent", "", nil, nil),
		ContentPushedLive:  prometheus.NewDesc("ally_content_pushed_live", "", nil, nil),
		FilesPushedLive:    prometheus.NewDesc("ally_files_pushed_live", "", nil, nil),
		ContentQueued:      prometheus.NewDesc("ally_content_queued", "", nil, nil),
		DeletionsQueued:    prometheus.NewDesc("ally_deletions_queued", "", nil, nil),
		QueueRowsDelivered: prometheus.NewDesc("ally_queue_rows_delivered", "", nil, nil),
		FilesDelivered:     prometheus.NewDesc("ally_files_delivered", "", nil, nil),
		EventsHandled:      prometheus.NewDesc("ally_events_handled", "", nil, nil),
		WebServiceRequests: prometheus.NewDesc("ally_webservice_requests", "", nil, nil),
		FileWatermark:      prometheus.NewDesc("ally_file_watermark", "", nil, nil),
		ContentWatermark:   prometheus.NewDesc("ally_content_watermark", "", nil, nil),
		CliOnly:            prometheus.NewDesc("ally_cli_only", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Errors
	ch <- self.PushFailures
	ch <- self.LivePushFailures
	ch <- self.FileTaskFailures
	ch <- self.ContentTaskFailures
	ch <- self.EventFailures
	ch <- self.WebServiceErrors

	// State
	ch <- self.BatchesSent
	ch <- self.PayloadsSent
	ch <- self.ContentPushedLive
	ch <- self.FilesPushedLive
	ch <- self.ContentQueued
	ch <- self.DeletionsQueued
	ch <- self.QueueRowsDelivered
	ch <- self.FilesDelivered
	ch <- self.EventsHandled
	ch <- self.WebServiceRequests
	ch <- self.FileWatermark
	ch <- self.ContentWatermark
	ch <- self.CliOnly
}

func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	self.monitor.fill()
	errors := &self.monitor.Report.Ally.Errors
	state := &self.monitor.Report.Ally.State

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.PushFailures, prometheus.CounterValue, float64(errors.PushFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.LivePushFailures, prometheus.CounterValue, float64(errors.LivePushFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.FileTaskFailures, prometheus.CounterValue, float64(errors.FileTaskFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ContentTaskFailures, prometheus.CounterValue, float64(errors.ContentTaskFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventFailures, prometheus.CounterValue, float64(errors.EventFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebServiceErrors, prometheus.CounterValue, float64(errors.WebServiceErrors.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.BatchesSent, prometheus.CounterValue, float64(state.BatchesSent.Load()))
	ch <- prometheus.MustNewConstMetric(self.PayloadsSent, prometheus.CounterValue, float64(state.PayloadsSent.Load()))
	ch <- prometheus.MustNewConstMetric(self.ContentPushedLive, prometheus.CounterValue, float64(state.ContentPushedLive.Load()))
	ch <- prometheus.MustNewConstMetric(self.FilesPushedLive, prometheus.CounterValue, float64(state.FilesPushedLive.Load()))
	ch <- prometheus.MustNewConstMetric(self.ContentQueued, prometheus.CounterValue, float64(state.ContentQueued.Load()))
	ch <- prometheus.MustNewConstMetric(self.DeletionsQueued, prometheus.CounterValue, float64(state.DeletionsQueued.Load()))
	ch <- prometheus.MustNewConstMetric(self.QueueRowsDelivered, prometheus.CounterValue, float64(state.QueueRowsDelivered.Load()))
	ch <- prometheus.MustNewConstMetric(self.FilesDelivered, prometheus.CounterValue, float64(state.FilesDelivered.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsHandled, prometheus.CounterValue, float64(state.EventsHandled.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebServiceRequests, prometheus.CounterValue, float64(state.WebServiceRequests.Load()))
	ch <- prometheus.MustNewConstMetric(self.FileWatermark, prometheus.GaugeValue, float64(state.FileWatermark.Load()))
	ch <- prometheus.MustNewConstMetric(self.ContentWatermark, prometheus.GaugeValue, float64(state.ContentWatermark.Load()))

	var cliOnly float64
	if state.CliOnly.Load() {
		cliOnly = 1
	}
	ch <- prometheus.MustNewConstMetric(self.CliOnly, prometheus.GaugeValue, cliOnly)
}
