package chain

import (
	"slices"

	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
)

// Record is the resolved name lists of one stage.
type Record struct {
	StageID string   `json:"stage"`
	In      []string `json:"in"`
	Out     []string `json:"out"`
}

// Namespace maps dataset names to datasets for one pipeline run and keeps,
// per role, the names seen so far in first-seen order. Source datasets and
// every stage output are input-capable; stage outputs are also recorded
// under RoleOut.
//
// A Namespace is not safe for concurrent use; only sequential resolution
// mutates it.
type Namespace struct {
	datasets map[string]*dataset.Dataset
	ledger   map[Role][]string
	records  []Record
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		datasets: make(map[string]*dataset.Dataset),
		ledger:   make(map[Role][]string),
	}
}

// AddSource registers a dataset produced by the pipeline's source stage.
func (ns *Namespace) AddSource(d *dataset.Dataset) error {
	if _, ok := ns.datasets[d.Name()]; ok {
		return errors.AlreadyExists("dataset", d.Name())
	}
	ns.datasets[d.Name()] = d
	ns.see(RoleIn, d.Name())
	return nil
}

// Get looks up the current dataset registered under name.
func (ns *Namespace) Get(name string) (*dataset.Dataset, error) {
	d, ok := ns.datasets[name]
	if !ok {
		return nil, errors.NotFound("dataset", name)
	}
	return d, nil
}

// Names returns the names seen for role in first-seen order.
func (ns *Namespace) Names(role Role) []string {
	return slices.Clone(ns.ledger[role])
}

// Outputs returns the current dataset behind every name seen as a stage
// output.
func (ns *Namespace) Outputs() []*dataset.Dataset {
	names := ns.ledger[RoleOut]
	out := make([]*dataset.Dataset, 0, len(names))
	for _, n := range names {
		out = append(out, ns.datasets[n])
	}
	return out
}

// Datasets returns every dataset currently registered, sources first.
func (ns *Namespace) Datasets() []*dataset.Dataset {
	names := ns.ledger[RoleIn]
	out := make([]*dataset.Dataset, 0, len(names))
	for _, n := range names {
		out = append(out, ns.datasets[n])
	}
	return out
}

// Records returns the resolved stages in order.
func (ns *Namespace) Records() []Record {
	return slices.Clone(ns.records)
}

// register makes a resolved stage's outputs visible to later stages. An
// output reusing a name replaces the earlier dataset.
func (ns *Namespace) register(stageID string, r Resolved, outputs []*dataset.Dataset) {
	for _, d := range outputs {
		ns.datasets[d.Name()] = d
	}
	for _, n := range r.In {
		ns.see(RoleIn, n)
	}
	for _, n := range r.Out {
		ns.see(RoleIn, n)
		ns.see(RoleOut, n)
	}
	ns.records = append(ns.records, Record{
		StageID: stageID,
		In:      slices.Clone(r.In),
		Out:     slices.Clone(r.Out),
	})
}

func (ns *Namespace) see(role Role, name string) {
	if !slices.Contains(ns.ledger[role], name) {
		ns.ledger[role] = append(ns.ledger[role], name)
	}
}
