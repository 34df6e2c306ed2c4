package report

type Report struct {
	Run  *RunReport  `json:"run,omitempty"`
	Ally *AllyReport `json:"ally,omitempty"`
}
