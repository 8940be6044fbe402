package chain

import (
	"fmt"
	"slices"

	"github.com/kbukum/tomoflow/dataset"
	"github.com/kbukum/tomoflow/errors"
)

// Resolved holds a stage's concrete input and output dataset names.
type Resolved struct {
	In  []string `json:"in"`
	Out []string `json:"out"`
}

// Binding is a fully resolved stage: its names and the datasets behind
// them.
type Binding struct {
	Resolved
	InSets  []*dataset.Dataset
	OutSets []*dataset.Dataset
}

// Link resolves the dataset names of desc against ns without modifying
// either, so linking the same stage twice gives the same answer.
func Link(desc Descriptor, stage Stage, ns *Namespace) (Resolved, error) {
	defIn, defOut := stage.DefaultDatasets()
	in, out := desc.In, desc.Out
	if len(in) == 0 {
		in = ParseNames(RoleIn, defIn)
	}
	if len(out) == 0 {
		out = ParseNames(RoleOut, defOut)
	}
	if len(in) == 0 {
		in = []NameSpec{AllOfRole{Role: RoleIn}}
	}

	inSlots, err := expand(desc.ID, in, ns)
	if err != nil {
		return Resolved{}, err
	}
	for _, s := range inSlots {
		if s.ref >= 0 {
			return Resolved{}, errors.InvalidInput(desc.ID, "input datasets cannot refer back to inputs")
		}
	}
	var outSlots []slot
	if len(out) == 0 {
		outSlots = slices.Clone(inSlots)
	} else if outSlots, err = expand(desc.ID, out, ns); err != nil {
		return Resolved{}, err
	}

	reqIn, reqOut := stage.RequiredDatasets()
	if inSlots, err = checkCount(desc.ID, RoleIn, reqIn, len(desc.In), inSlots); err != nil {
		return Resolved{}, err
	}
	if outSlots, err = checkCount(desc.ID, RoleOut, reqOut, len(desc.Out), outSlots); err != nil {
		return Resolved{}, err
	}

	r := Resolved{In: make([]string, len(inSlots)), Out: make([]string, len(outSlots))}
	for i, s := range inSlots {
		r.In[i] = s.name
	}
	for i, s := range outSlots {
		if s.ref < 0 {
			r.Out[i] = s.name
			continue
		}
		if s.ref >= len(r.In) {
			return Resolved{}, errors.BackReferenceOutOfRange(desc.ID, s.ref, len(r.In))
		}
		r.Out[i] = r.In[s.ref]
	}
	return r, nil
}

// slot is one expanded name; ref is the input index of a back-reference
// and -1 otherwise.
type slot struct {
	name string
	ref  int
}

// expand splices "all" with the namespace ledger.
func expand(stageID string, specs []NameSpec, ns *Namespace) ([]slot, error) {
	var slots []slot
	for _, s := range specs {
		switch s := s.(type) {
		case Explicit:
			slots = append(slots, slot{name: s.Name, ref: -1})
		case AllOfRole:
			for _, n := range ns.Names(s.Role) {
				slots = append(slots, slot{name: n, ref: -1})
			}
		case BackReference:
			slots = append(slots, slot{name: s.String(), ref: s.Index})
		default:
			return nil, errors.Internal(fmt.Errorf("stage %s: unknown name spec %T", stageID, s))
		}
	}
	return slots, nil
}

// checkCount enforces a stage's required count on one side. A required
// count of zero empties the side. A variable count is fixed by the length
// of the list the descriptor declares for that side, if it declares one.
func checkCount(stageID string, role Role, want Count, declared int, slots []slot) ([]slot, error) {
	switch {
	case want.IsVariable():
		if declared > 0 && len(slots) != declared {
			return nil, errors.ChainBroken(stageID, string(role), declared, len(slots))
		}
		return slots, nil
	case want.N() == 0:
		return nil, nil
	case len(slots) != want.N():
		return nil, errors.ChainBroken(stageID, string(role), want.N(), len(slots))
	}
	return slots, nil
}

// Resolve links desc, writes the resolved names back into it, binds the
// stage's parameters, creates and shapes the output datasets and registers
// them in ns.
func Resolve(desc *Descriptor, stage Stage, ns *Namespace) (*Binding, error) {
	r, err := Link(*desc, stage, ns)
	if err != nil {
		return nil, err
	}
	desc.In = ExplicitNames(r.In)
	desc.Out = ExplicitNames(r.Out)

	if err := stage.BindParameters(*desc); err != nil {
		return nil, err
	}

	inSets := make([]*dataset.Dataset, len(r.In))
	for i, n := range r.In {
		if inSets[i], err = ns.Get(n); err != nil {
			return nil, err
		}
	}
	outSets := make([]*dataset.Dataset, len(r.Out))
	for i, n := range r.Out {
		outSets[i] = dataset.New(n)
	}

	if err := stage.SetupDatasets(inSets, outSets); err != nil {
		return nil, err
	}
	for _, d := range outSets {
		if !d.Shaped() {
			return nil, errors.InvalidPattern(d.Name(), "", fmt.Sprintf("stage %s did not shape its output", desc.ID))
		}
		if len(d.PatternNames()) == 0 {
			return nil, errors.InvalidPattern(d.Name(), "", fmt.Sprintf("stage %s gave its output no access pattern", desc.ID))
		}
	}

	ns.register(desc.ID, r, outSets)
	return &Binding{Resolved: r, InSets: inSets, OutSets: outSets}, nil
}
