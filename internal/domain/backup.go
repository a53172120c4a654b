package domain

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type Target struct {
	Name      string
	SizeBytes int64
}

type Outcome struct {
	Database   string
	FilePath   string
	SizeBytes  int64
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Status     Status
	Cause      string
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

func FailedOutcome(database, filePath string, startedAt time.Time, cause string) Outcome {
	finished := time.Now()
	return Outcome{
		Database:   database,
		FilePath:   filePath,
		StartedAt:  startedAt,
		FinishedAt: finished,
		Duration:   finished.Sub(startedAt),
		Status:     StatusFailed,
		Cause:      cause,
	}
}

type Report struct {
	Total          int
	Succeeded      int
	Failed         int
	TotalSizeBytes int64
	Failures       []Failure
	Outcomes       []Outcome
}

type Failure struct {
	Database string
	Cause    string
}
