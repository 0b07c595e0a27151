package bootstrap

import (
	"github.com/kbukum/packetflow/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies it through promoted methods;
// config.RuntimeConfig is the one packetflow uses.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
