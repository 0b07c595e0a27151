// Package version reports the build of the packetflow binary, from -ldflags
// when set and from the Go module's VCS stamp otherwise.
package version
