package dataset

import (
	"fmt"
	"strings"
)

// AxisLabel names a dimension and its unit, written "name.unit".
type AxisLabel struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// ParseAxisLabel parses "name.unit". A label without a unit gets "unknown".
func ParseAxisLabel(s string) AxisLabel {
	name, unit, ok := strings.Cut(s, ".")
	if !ok || unit == "" {
		unit = "unknown"
	}
	return AxisLabel{Name: name, Unit: unit}
}

// ParseAxisLabels parses every label in order.
func ParseAxisLabels(labels []string) []AxisLabel {
	out := make([]AxisLabel, len(labels))
	for i, l := range labels {
		out[i] = ParseAxisLabel(l)
	}
	return out
}

func (l AxisLabel) String() string { return l.Name + "." + l.Unit }

func defaultLabels(rank int) []AxisLabel {
	out := make([]AxisLabel, rank)
	for i := range out {
		out[i] = AxisLabel{Name: fmt.Sprintf("dim%d", i), Unit: "unknown"}
	}
	return out
}
