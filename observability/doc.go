// Package observability wires OpenTelemetry tracing and metrics into the
// pipeline driver.
//
// Each stage phase gets a span and a duration sample:
//
//	ctx, op := observability.StartStage(ctx, metrics, stageID, index, observability.PhaseExecute)
//	err := execute(ctx)
//	op.End(ctx, err)
//
// Exporters are only installed when Config.Enabled is set:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
package observability
