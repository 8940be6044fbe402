package chain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Role is the side of a stage a dataset name belongs to.
type Role string

const (
	RoleIn  Role = "in"
	RoleOut Role = "out"
)

// AllSentinel selects every dataset of a role seen so far.
const AllSentinel = "all"

// NameSpec is one declared dataset name: Explicit, AllOfRole or
// BackReference.
type NameSpec interface {
	fmt.Stringer
	nameSpec()
}

// Explicit names a dataset directly.
type Explicit struct{ Name string }

// AllOfRole expands to every dataset name the namespace has seen for Role.
type AllOfRole struct{ Role Role }

// BackReference stands for the stage's own resolved input at Index.
type BackReference struct{ Index int }

func (Explicit) nameSpec()      {}
func (AllOfRole) nameSpec()     {}
func (BackReference) nameSpec() {}

func (e Explicit) String() string      { return e.Name }
func (AllOfRole) String() string       { return AllSentinel }
func (b BackReference) String() string { return fmt.Sprintf("in_datasets[%d]", b.Index) }

var backRefPattern = regexp.MustCompile(`^in_datasets\[(\d+)\]`)

// ParseName turns a process-file name into a NameSpec. "all" selects every
// dataset of role; "in_datasets[N]" with any suffix refers back to input N.
func ParseName(role Role, s string) NameSpec {
	if s == AllSentinel {
		return AllOfRole{Role: role}
	}
	if m := backRefPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return BackReference{Index: n}
		}
	}
	return Explicit{Name: s}
}

// ParseNames parses every name in order.
func ParseNames(role Role, names []string) []NameSpec {
	if len(names) == 0 {
		return nil
	}
	out := make([]NameSpec, len(names))
	for i, s := range names {
		out[i] = ParseName(role, s)
	}
	return out
}

// ExplicitNames wraps resolved names as Explicit specs.
func ExplicitNames(names []string) []NameSpec {
	out := make([]NameSpec, len(names))
	for i, n := range names {
		out[i] = Explicit{Name: n}
	}
	return out
}

// SpecStrings renders specs back into process-file form.
func SpecStrings(specs []NameSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out
}

// Count is the number of datasets a stage requires on one side: a fixed
// number, or variable when the stage accepts whatever its own declaration
// resolves to.
type Count struct {
	n        int
	variable bool
}

// Fixed requires exactly n datasets.
func Fixed(n int) Count { return Count{n: n} }

// Variable takes its count from the list the descriptor declares for that
// side, or accepts whatever resolves when nothing is declared.
func Variable() Count { return Count{variable: true} }

func (c Count) IsVariable() bool { return c.variable }

// N returns the fixed count; it is meaningless for variable counts.
func (c Count) N() int { return c.n }

func (c Count) String() string {
	if c.variable {
		return "var"
	}
	return strconv.Itoa(c.n)
}
