package report

import "go.uber.org/atomic"

type AllyErrors struct {
	PushFailures        atomic.Uint64 `json:"push_failures"`
	LivePushFailures    atomic.Uint64 `json:"live_push_failures"`
	FileTaskFailures    atomic.Uint64 `json:"file_task_failures"`
	ContentTaskFailures atomic.Uint64 `json:"content_task_failures"`
	EventFailures       atomic.Uint64 `json:"event_failures"`
	WebServiceErrors    atomic.Uint64 `json:"webservice_errors"`
}

type AllyState struct {
	BatchesSent             atomic.Uint64 `json:"batches_sent"`
	PayloadsSent            atomic.Uint64 `json:"payloads_sent"`
	ContentPushedLive       atomic.Uint64 `json:"content_pushed_live"`
	FilesPushedLive         atomic.Uint64 `json:"files_pushed_live"`
	ContentQueued           atomic.Uint64 `json:"content_queued"`
	DeletionsQueued         atomic.Uint64 `json:"deletions_queued"`
	QueueRowsDelivered      atomic.Uint64 `json:"queue_rows_delivered"`
	FilesDelivered          atomic.Uint64 `json:"files_delivered"`
	EventsHandled           atomic.Uint64 `json:"events_handled"`
	WebServiceRequests      atomic.Uint64 `json:"webservice_requests"`
	FileWatermark           atomic.Int64  `json:"file_watermark"`
	ContentWatermark        atomic.Int64  `json:"content_watermark"`
	LastFileRunTimestamp    atomic.Int64  `json:"last_file_run_timestamp"`
	LastContentRunTimestamp atomic.Int64  `json:"last_content_run_timestamp"`
	CliOnly                 atomic.Bool   `json:"cli_only"`
}

type AllyReport struct {
	State  AllyState  `json:"state"`
	Errors AllyErrors `json:"errors"`
}
