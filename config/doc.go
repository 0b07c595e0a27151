// Package config loads the packetflow service configuration.
//
// Values come from, in increasing precedence: defaults, a config.yml found in
// the standard locations, environment variables prefixed with the service name
// (optionally seeded from a .env file), and explicitly set command-line flags.
//
//	cfg, err := config.Load("packetflow", config.WithFlags(pflag.CommandLine))
//
// PACKETFLOW_RUNTIME_QUEUE_CAPACITY=50 overrides runtime.queue_capacity.
package config
