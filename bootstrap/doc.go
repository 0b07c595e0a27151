// Package bootstrap runs a packetflow process: config defaults and
// validation, logger initialization, ordered component start and reverse
// stop, lifecycle hooks, and signal handling around a finite task.
package bootstrap
