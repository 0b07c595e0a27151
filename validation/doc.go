// Package validation collects configuration violations for builders, graph
// definitions and service config.
//
// Builders use the programmatic Validator so that every problem with their
// slots is reported in one ConfigurationError:
//
//	v := validation.New("clone")
//	v.Required("ingressor", b.ingressor != nil)
//	v.Range("num_egressors", b.numEgressors, 1, 1000)
//	if err := v.Validate(); err != nil {
//	    return err
//	}
//
// Declarative inputs use struct tags through Struct:
//
//	type Runtime struct {
//	    QueueCapacity int `validate:"min=1,max=1000"`
//	}
//	err := validation.Struct("runtime", cfg)
package validation
