package driver

import (
	"time"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
)

// State is the lifecycle position of a run.
type State string

const (
	StateNew       State = "new"
	StateLoaded    State = "loaded"
	StateExecuting State = "executing"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// DatasetInfo describes a dataset for snapshots and status reports.
type DatasetInfo struct {
	Name     string       `json:"name"`
	Shape    []int        `json:"shape"`
	Labels   []string     `json:"labels"`
	Patterns []string     `json:"patterns"`
	File     dataset.File `json:"file"`
	// Coverage is the fraction of the dataset written so far.
	Coverage float64 `json:"coverage"`
}

// Snapshot is the namespace's outputs right after one stage was loaded.
type Snapshot struct {
	StageIndex int           `json:"stage_index"`
	StageID    string        `json:"stage_id"`
	Resolved   chain.Record  `json:"resolved"`
	Outputs    []DatasetInfo `json:"outputs"`
}

// Status is a point-in-time view of a run.
type Status struct {
	RunID      string     `json:"run_id"`
	Process    string     `json:"process"`
	State      State      `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Stages     int        `json:"stages"`
	Executed   int        `json:"executed"`
	History    []Snapshot `json:"history"`
}

type coverer interface {
	Coverage() float64
}

func describe(d *dataset.Dataset) DatasetInfo {
	info := DatasetInfo{
		Name:     d.Name(),
		Shape:    d.Shape(),
		Patterns: d.PatternNames(),
		File:     d.File,
		Coverage: 1,
	}
	for _, l := range d.Labels() {
		info.Labels = append(info.Labels, l.String())
	}
	switch b := d.Backing().(type) {
	case nil:
		info.Coverage = 0
	case coverer:
		info.Coverage = b.Coverage()
	}
	return info
}
