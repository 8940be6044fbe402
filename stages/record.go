package stages

import (
	"sync"

	"github.com/kbukum/tomoflow/chain"
	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/plugin"
)

// Record is a sink that keeps the latest set of pipeline outputs, with the
// backing file and group each one is persisted to.
type Record struct {
	plugin.Base

	mu      sync.Mutex
	outputs []*dataset.Dataset
	setups  int
}

var _ plugin.Sink = (*Record)(nil)

func NewRecord() *Record {
	return &Record{Base: plugin.NewBase(RecordID, chain.Fixed(0), chain.Fixed(0), nil, nil)}
}

func (r *Record) SetupDatasets(_, _ []*dataset.Dataset) error { return nil }

// Setup replaces the recorded set with the namespace's current outputs.
func (r *Record) Setup(ns *chain.Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs = ns.Outputs()
	r.setups++
	return nil
}

// Outputs returns the recorded datasets.
func (r *Record) Outputs() []*dataset.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*dataset.Dataset(nil), r.outputs...)
}

// Files maps each recorded dataset to its persisted location.
func (r *Record) Files() map[string]dataset.File {
	r.mu.Lock()
	defer r.mu.Unlock()
	files := make(map[string]dataset.File, len(r.outputs))
	for _, d := range r.outputs {
		files[d.Name()] = d.File
	}
	return files
}

// Setups counts how often Setup has been called.
func (r *Record) Setups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setups
}
