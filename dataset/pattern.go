package dataset

import (
	"fmt"
	"slices"
	"strings"
)

// Well-known pattern names.
const (
	PatternProjection = "PROJECTION"
	PatternSinogram   = "SINOGRAM"
	PatternSpectrum   = "SPECTRUM"
)

// Pattern splits a dataset's dimension indices into core and slice
// directions. Both lists are kept sorted.
type Pattern struct {
	CoreDir  []int `json:"core_dir" yaml:"core_dir" mapstructure:"core_dir"`
	SliceDir []int `json:"slice_dir" yaml:"slice_dir" mapstructure:"slice_dir"`
}

// NewPattern returns a pattern with sorted, de-duplicated directions.
func NewPattern(core, slice []int) Pattern {
	return Pattern{CoreDir: normalize(core), SliceDir: normalize(slice)}
}

func normalize(dims []int) []int {
	out := slices.Clone(dims)
	slices.Sort(out)
	return slices.Compact(out)
}

// Rank returns the number of dimensions the pattern covers.
func (p Pattern) Rank() int { return len(p.CoreDir) + len(p.SliceDir) }

// partitionError describes why p does not partition 0..rank-1, or returns
// the empty string when it does.
func (p Pattern) partitionError(rank int) string {
	seen := make([]int, rank)
	for _, group := range [][]int{p.CoreDir, p.SliceDir} {
		for _, d := range group {
			if d < 0 || d >= rank {
				return fmt.Sprintf("dimension %d is out of range for rank %d", d, rank)
			}
			seen[d]++
		}
	}
	var missing, overlap []string
	for d, n := range seen {
		switch {
		case n == 0:
			missing = append(missing, fmt.Sprint(d))
		case n > 1:
			overlap = append(overlap, fmt.Sprint(d))
		}
	}
	if len(overlap) > 0 {
		return fmt.Sprintf("dimensions [%s] are both core and slice directions", strings.Join(overlap, " "))
	}
	if len(missing) > 0 {
		return fmt.Sprintf("dimensions [%s] are neither core nor slice directions", strings.Join(missing, " "))
	}
	return ""
}

// InsertDim returns the pattern for a dataset that gained a dimension at
// index at: directions at or after it move up by one and the new dimension
// becomes a slice direction.
func (p Pattern) InsertDim(at int) Pattern {
	shift := func(dims []int) []int {
		out := make([]int, len(dims))
		for i, d := range dims {
			if d >= at {
				d++
			}
			out[i] = d
		}
		return out
	}
	return NewPattern(shift(p.CoreDir), append(shift(p.SliceDir), at))
}

// Clone returns a deep copy.
func (p Pattern) Clone() Pattern {
	return Pattern{CoreDir: slices.Clone(p.CoreDir), SliceDir: slices.Clone(p.SliceDir)}
}

// NamedPattern pairs a pattern with the name it is registered under.
type NamedPattern struct {
	Name string
	Pattern
}
