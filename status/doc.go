// Package status serves the operational HTTP endpoints of a packetflow
// service with gin:
//
//	GET /healthz        component health, 503 when any component is down
//	GET /stats          per-stage received, emitted and dropped counters
//	GET /stats/:stage   counters of one stage, 404 when unknown
//	GET /version        build information
package status
