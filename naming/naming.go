// Package naming derives the backing file and group of every dataset a
// pipeline stage writes. Names depend only on their inputs, so running the
// same process file twice reproduces the same artifacts.
package naming

import (
	"fmt"
	"path/filepath"
)

// DefaultExt is the backing file extension used when none is configured.
const DefaultExt = "tfb"

// Output is the persisted identity of one dataset.
type Output struct {
	Filename string `json:"filename"`
	Group    string `json:"group"`
}

// Namer names stage outputs for one pipeline run.
type Namer struct {
	// Basename is derived from the source data, e.g. "scan.nxs".
	Basename string
	// OutPath is the directory backing files are written under.
	OutPath string
	// Ext defaults to DefaultExt.
	Ext string
}

// Name returns the output identity of dataset key written by the stage at
// stageIndex, counted among intermediate stages from 0.
//
//	Namer{Basename: "scan.nxs", OutPath: "/out"}.Name(0, "foo", "foo", "tomo")
//	// {Filename: "/out/scan.nxs00_foo_tomo.tfb", Group: "0-foo"}
func (n Namer) Name(stageIndex int, stageID, displayName, key string) Output {
	ext := n.Ext
	if ext == "" {
		ext = DefaultExt
	}
	file := fmt.Sprintf("%s%02d_%s_%s.%s", n.Basename, stageIndex, stageID, key, ext)
	return Output{
		Filename: filepath.Join(n.OutPath, file),
		Group:    fmt.Sprintf("%d-%s", stageIndex, displayName),
	}
}

// Assign names every key of one stage.
func (n Namer) Assign(stageIndex int, stageID, displayName string, keys []string) map[string]Output {
	out := make(map[string]Output, len(keys))
	for _, key := range keys {
		out[key] = n.Name(stageIndex, stageID, displayName, key)
	}
	return out
}
