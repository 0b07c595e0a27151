// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs, plus the Observer hook that links report stage activity to.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("packetflow"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStageMetrics(observability.Meter("packetflow"))
//	stats := observability.NewStats()
//	link.NewClassify[Packet, Zone]().Observer(observability.Tee(metrics, stats))
package observability
