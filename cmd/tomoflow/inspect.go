package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/tomoflow/backing"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/storage"
)

// groupSummary is what inspect prints per group.
type groupSummary struct {
	backing.GroupHeader `yaml:",inline"`
	Min                 float64 `yaml:"min"`
	Max                 float64 `yaml:"max"`
}

func inspectCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, store, err := openStorage("inspect", args, stderr)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected one backing file, got %d", fs.NArg())
	}
	groups, err := backing.Open(ctx, store, fs.Arg(0))
	if err != nil {
		return err
	}

	summaries := make([]groupSummary, len(groups))
	for i, g := range groups {
		summaries[i] = summarize(g)
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(summaries); err != nil {
		return err
	}
	return enc.Close()
}

// listCommand prints the stored objects under an optional prefix.
func listCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, store, err := openStorage("list", args, stderr)
	if err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("list: expected at most one prefix, got %d", fs.NArg())
	}
	objects, err := store.List(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	for _, o := range objects {
		fmt.Fprintf(stdout, "%10d  %s  %s\n", o.Size, o.LastModified.UTC().Format(time.RFC3339), o.Path)
	}
	return nil
}

// openStorage parses the common flags and opens the configured storage
// without starting the rest of the application.
func openStorage(name string, args []string, stderr io.Writer) (*pflag.FlagSet, storage.Storage, error) {
	var f commonFlags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := f.load(fs)
	if err != nil {
		return nil, nil, err
	}
	cfg.Storage.ApplyDefaults()
	if err := cfg.Storage.Validate(); err != nil {
		return nil, nil, err
	}
	store, err := storage.New(cfg.Storage, logger.NewNop())
	if err != nil {
		return nil, nil, err
	}
	return fs, store, nil
}

func summarize(g backing.Group) groupSummary {
	s := groupSummary{GroupHeader: g.GroupHeader}
	values := g.Data.Data()
	if len(values) == 0 {
		return s
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		s.Min, s.Max = min(s.Min, v), max(s.Max, v)
	}
	return s
}
