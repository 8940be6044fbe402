package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/kbukum/tomoflow/bootstrap"
	"github.com/kbukum/tomoflow/driver"
	"github.com/kbukum/tomoflow/logger"
	"github.com/kbukum/tomoflow/observability"
	"github.com/kbukum/tomoflow/plugin"
	"github.com/kbukum/tomoflow/stages"
	"github.com/kbukum/tomoflow/status"
	"github.com/kbukum/tomoflow/storage"
)

type runFlags struct {
	commonFlags
	outPath     string
	basename    string
	maxParallel int
	maxFrames   int
	serve       bool
	port        int
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var f runFlags
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	f.register(fs)
	fs.StringVarP(&f.outPath, "out", "o", "", "directory backing files are written under")
	fs.StringVar(&f.basename, "basename", "", "prefix of backing filenames (default: process name)")
	fs.IntVarP(&f.maxParallel, "max-parallel", "j", 0, "frames processed concurrently per stage")
	fs.IntVar(&f.maxFrames, "max-frames", 0, "slice indices per frame")
	fs.BoolVar(&f.serve, "status", false, "serve run status over HTTP while running")
	fs.IntVar(&f.port, "status-port", 0, "status server port (0 picks a free one)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected one process name or file, got %d", fs.NArg())
	}

	cfg, err := f.load(fs)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)

	p, err := plugin.NewLoader(plugin.DefaultSearchPaths()...).Load(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg.ApplyDefaults()
	logOut := stderr
	if cfg.Logging.Output == "stdout" {
		logOut = stdout
	}
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(logger.NewWithWriter(logOut, &cfg.Logging, appName)))
	if err != nil {
		return err
	}
	telemetry := observability.NewComponent(cfg.Observability, app.Logger)
	store := storage.NewComponent(cfg.Storage, app.Logger)
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(store); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		d, err := driver.New(cfg.Driver, stages.NewRegistry(), store.Storage(),
			driver.WithLogger(app.Logger),
			driver.WithMetrics(telemetry.Metrics()),
		)
		if err != nil {
			return err
		}
		if cfg.Status.Enabled {
			srv := status.NewComponent(status.New(cfg.Status, d, app.Logger, app.Components.HealthAll))
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := srv.Stop(context.WithoutCancel(ctx)); err != nil {
					app.Logger.Warn("status server stop failed", logger.ErrorFields("stop", err))
				}
			}()
			fmt.Fprintf(stdout, "status: http://%s\n", srv.Describe().Details)
		}

		runErr := d.Run(ctx, p)
		printSummary(stdout, d)
		return runErr
	})
}

// apply overrides cfg with the run flags the user set.
func (f *runFlags) apply(fs *pflag.FlagSet, cfg *AppConfig) {
	if fs.Changed("out") {
		cfg.Driver.OutPath = f.outPath
	}
	if fs.Changed("basename") {
		cfg.Driver.Basename = f.basename
	}
	if fs.Changed("max-parallel") {
		cfg.Driver.MaxParallel = f.maxParallel
	}
	if fs.Changed("max-frames") {
		cfg.Driver.MaxFrames = f.maxFrames
	}
	if fs.Changed("status") {
		cfg.Status.Enabled = f.serve
	}
	if fs.Changed("status-port") {
		cfg.Status.Port = f.port
	}
}

func printSummary(w io.Writer, d *driver.Driver) {
	st := d.Status()
	fmt.Fprintf(w, "run %s: %s (%d/%d stages)\n", st.RunID, st.State, st.Executed, st.Stages)
	for _, snap := range st.History {
		for _, out := range snap.Outputs {
			fmt.Fprintf(w, "  %d %s: %s %v -> %s:%s\n",
				snap.StageIndex, snap.StageID, out.Name, out.Shape, out.File.Filename, out.File.Group)
		}
	}
}
