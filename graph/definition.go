package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/packetflow/validation"
)

// Stage kinds accepted in a definition.
const (
	KindClassify           = "classify"
	KindJoin               = "join"
	KindProcess            = "process"
	KindClone              = "clone"
	KindJoinTransformClone = "join_transform_clone"
)

// Definition is a YAML-declared pipeline: named external sources, the stages
// that connect them, and the named sinks left for the caller to consume.
type Definition struct {
	// Name identifies the graph in logs and errors.
	Name string `yaml:"name" validate:"required"`
	// Sources lists the names of streams supplied by the caller.
	Sources []string `yaml:"sources" validate:"required,min=1,dive,required"`
	// Stages are built in dependency order, not declaration order.
	Stages []StageDef `yaml:"stages" validate:"dive"`
	// Sinks name the stage outputs handed back to the caller.
	Sinks []SinkDef `yaml:"sinks" validate:"required,min=1,dive"`
}

// StageDef declares one link.
//
// Stream references are either a source or stage name, meaning its first
// output, or name.N for output N.
type StageDef struct {
	Name string `yaml:"name" validate:"required"`
	Kind string `yaml:"kind" validate:"required,oneof=classify join process clone join_transform_clone"`

	// Input is the single ingress of classify, process and clone stages.
	Input string `yaml:"input,omitempty"`
	// Inputs are the ingresses of join and join_transform_clone stages.
	Inputs []string `yaml:"inputs,omitempty" validate:"omitempty,max=1000,dive,required"`

	// Element names the registered processor of process and
	// join_transform_clone stages.
	Element string `yaml:"element,omitempty"`
	// Classifier names the registered classifier of a classify stage.
	Classifier string `yaml:"classifier,omitempty"`
	// Dispatcher names a registered dispatcher. Exclusive with Routes.
	Dispatcher string `yaml:"dispatcher,omitempty"`
	// Routes maps categories to egress indices. Unlisted categories drop.
	Routes map[string]int `yaml:"routes,omitempty"`

	Egressors          int `yaml:"egressors,omitempty" validate:"omitempty,min=1,max=1000"`
	QueueCapacity      int `yaml:"queue_capacity,omitempty" validate:"omitempty,min=1,max=1000"`
	CloneQueueCapacity int `yaml:"clone_queue_capacity,omitempty" validate:"omitempty,min=1,max=1000"`
}

// SinkDef names a stage output the caller drains.
type SinkDef struct {
	Name  string `yaml:"name" validate:"required"`
	Input string `yaml:"input" validate:"required"`
}

// Parse decodes a YAML definition, rejecting unknown fields, and checks its
// struct tags.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("graph: parsing definition: %w", err)
	}
	if err := validation.Struct("graph", &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads and parses the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: reading %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("graph: %s: %w", path, err)
	}
	return def, nil
}

// Find searches dirs for {name}.yaml or {name}.yml and loads the first match.
func Find(name string, dirs ...string) (*Definition, error) {
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return Load(path)
		}
	}
	return nil, fmt.Errorf("graph: definition %q not found in %v", name, dirs)
}

// outputs returns how many egress streams the stage produces, or 0 when the
// definition leaves it unspecified.
func (s *StageDef) outputs() int {
	switch s.Kind {
	case KindProcess, KindJoin:
		return 1
	default:
		return s.Egressors
	}
}

// inputs returns every stream reference the stage consumes.
func (s *StageDef) inputs() []string {
	if s.Input != "" {
		return append([]string{s.Input}, s.Inputs...)
	}
	return s.Inputs
}
