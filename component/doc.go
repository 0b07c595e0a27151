// Package component defines the lifecycle interface shared by the long-lived
// parts of packetflow and a registry that starts them in order and stops
// them in reverse.
//
// A running pipeline, the status HTTP server and the telemetry providers are
// all components. The registry also reports their health in the
// observability format so the status endpoint can serve it.
package component
