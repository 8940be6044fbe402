// Package status serves a read-only HTTP view of a pipeline run: component
// health, the run's state with its per-stage history, and the datasets in
// its namespace with their backing files and write coverage.
//
// The server is a Gin engine behind an h2c handler so HTTP/1.1 and
// cleartext HTTP/2 clients share one port:
//
//	srv := status.New(cfg, drv, logger.GetGlobalLogger(), registry.HealthAll)
//	comp := status.NewComponent(srv)
//	_ = comp.Start(ctx)
//	defer comp.Stop(ctx)
package status
