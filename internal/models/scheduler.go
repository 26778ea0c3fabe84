package models

import "time"

// SchedulerStatus is derived from the live cron entries, never stored
type SchedulerStatus struct {
	IsRunning          bool       `json:"isRunning"`
	IsProduction       bool       `json:"isProduction"`
	IsTradingHours     bool       `json:"isTradingHours"`
	NextEconomicUpdate *time.Time `json:"nextEconomicUpdate"`
	NextMarketUpdate   *time.Time `json:"nextMarketUpdate"`
}

// JobOutcome reports one job of a forced update
type JobOutcome struct {
	Job      string `json:"job"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// ForceUpdateResult is returned once every job has settled
type ForceUpdateResult struct {
	CompletedAt time.Time    `json:"completedAt"`
	Jobs        []JobOutcome `json:"jobs"`
}
