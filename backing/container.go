package backing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/tomoflow/errors"
	"github.com/kbukum/tomoflow/ndarray"
)

const (
	formatName    = "tomoflow"
	formatVersion = 1
)

// PatternMeta records a pattern's directions.
type PatternMeta struct {
	Core  []int `yaml:"core"`
	Slice []int `yaml:"slice"`
}

// Meta is the dataset description stored alongside a group's values.
type Meta struct {
	Dataset  string                 `yaml:"dataset"`
	Labels   []string               `yaml:"labels,omitempty"`
	Patterns map[string]PatternMeta `yaml:"patterns,omitempty"`
	Attrs    map[string]any         `yaml:"attrs,omitempty"`
}

// GroupHeader locates one group inside the payload. Offset and Length
// count float64 values, not bytes.
type GroupHeader struct {
	Name   string `yaml:"name"`
	Shape  []int  `yaml:"shape"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
	Meta   Meta   `yaml:"meta"`
}

// Header is the YAML document at the start of a container.
type Header struct {
	Format  string        `yaml:"format"`
	Version int           `yaml:"version"`
	Groups  []GroupHeader `yaml:"groups"`
}

// Group is a decoded group.
type Group struct {
	GroupHeader
	Data *ndarray.Dense[float64]
}

// encode writes the container for arrays in order.
func encode(w io.Writer, arrays []*Array) error {
	h := Header{Format: formatName, Version: formatVersion}
	offset := 0
	for _, a := range arrays {
		n := len(a.data.Data())
		h.Groups = append(h.Groups, GroupHeader{
			Name:   a.group,
			Shape:  a.data.Shape(),
			Offset: offset,
			Length: n,
			Meta:   a.meta,
		})
		offset += n
	}

	head, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(head))); err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return err
	}
	buf := make([]byte, 8)
	for _, a := range arrays {
		for _, v := range a.data.Data() {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode parses a container produced by a closed File.
func Decode(data []byte) ([]Group, error) {
	r := bytes.NewReader(data)
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.InvalidInput("container", "missing header length")
	}
	if n > uint64(r.Len()) {
		return nil, errors.InvalidInput("container", fmt.Sprintf("header length %d exceeds file size", n))
	}
	head := make([]byte, n)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, errors.InvalidInput("container", "truncated header")
	}

	var h Header
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, errors.InvalidInput("container", fmt.Sprintf("bad header: %v", err))
	}
	if h.Format != formatName || h.Version != formatVersion {
		return nil, errors.InvalidInput("container", fmt.Sprintf("unsupported format %s v%d", h.Format, h.Version))
	}

	payload := data[8+int(n):]
	groups := make([]Group, 0, len(h.Groups))
	for _, gh := range h.Groups {
		end := (gh.Offset + gh.Length) * 8
		if gh.Offset < 0 || end > len(payload) || gh.Length != ndarray.Product(gh.Shape) {
			return nil, errors.InvalidInput("container", fmt.Sprintf("group %s is out of bounds", gh.Name))
		}
		dense, err := ndarray.NewDense[float64](gh.Shape...)
		if err != nil {
			return nil, err
		}
		values := dense.Data()
		for i := range values {
			off := (gh.Offset + i) * 8
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
		}
		groups = append(groups, Group{GroupHeader: gh, Data: dense})
	}
	return groups, nil
}
