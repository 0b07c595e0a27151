package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/packetflow/errors"
	"github.com/kbukum/packetflow/validation"
)

// Component is the name reported in graph configuration errors.
const Component = "graph"

// plan is a definition whose wiring has been checked.
type plan struct {
	def    *Definition
	stages map[string]*StageDef
	levels [][]string
}

// Validate checks a definition's wiring without building anything: names,
// per-kind fields, stream references, double consumption, streams without a
// consumer, and cycles.
func Validate(def *Definition) error {
	if _, err := compile(def); err != nil {
		return err
	}
	return nil
}

func compile(def *Definition) (*plan, error) {
	v := validation.New(Component)
	outputs := make(map[string]int)
	stages := make(map[string]*StageDef, len(def.Stages))
	stageNames := make([]string, 0, len(def.Stages))

	declare := func(slot, name string, n int) bool {
		if strings.Contains(name, ".") {
			v.Add(slot, errors.ReasonInvalid, fmt.Sprintf("name %q must not contain '.'", name))
			return false
		}
		if _, dup := outputs[name]; dup {
			v.Add(slot, errors.ReasonInvalid, fmt.Sprintf("name %q is declared twice", name))
			return false
		}
		outputs[name] = n
		return true
	}

	for i, name := range def.Sources {
		declare(fmt.Sprintf("sources[%d]", i), name, 1)
	}
	for i := range def.Stages {
		s := &def.Stages[i]
		slot := stageSlot(s.Name, "")
		checkStage(v, s)
		if declare(slot, s.Name, s.outputs()) {
			stages[s.Name] = s
			stageNames = append(stageNames, s.Name)
		}
	}

	consumers := make(map[string]string)
	var edges []edge
	consume := func(slot, consumer, raw string, consumerIsStage bool) {
		r, ok := parseRef(raw)
		if !ok {
			v.Add(slot, errors.ReasonUnknownReference, fmt.Sprintf("malformed stream reference %q", raw))
			return
		}
		n, exists := outputs[r.node]
		if !exists {
			v.Add(slot, errors.ReasonUnknownReference, fmt.Sprintf("%q is not a source or stage", r.node))
			return
		}
		if n > 0 && r.index >= n {
			v.Add(slot, errors.ReasonUnknownReference, fmt.Sprintf("%q has %d outputs, %s does not exist", r.node, n, r))
			return
		}
		if prev, taken := consumers[r.String()]; taken {
			v.Add(slot, errors.ReasonStreamConsumed, fmt.Sprintf("stream %s is already consumed by %s", r, prev))
			return
		}
		consumers[r.String()] = consumer
		if _, fromStage := stages[r.node]; fromStage && consumerIsStage {
			edges = append(edges, edge{From: r.node, To: consumer})
		}
	}

	for _, name := range stageNames {
		s := stages[name]
		for _, in := range s.inputs() {
			consume(stageSlot(name, "input"), name, in, true)
		}
	}
	sinkNames := make(map[string]bool, len(def.Sinks))
	for _, sink := range def.Sinks {
		slot := "sinks." + sink.Name
		if sinkNames[sink.Name] {
			v.Add(slot, errors.ReasonInvalid, fmt.Sprintf("sink %q is declared twice", sink.Name))
			continue
		}
		sinkNames[sink.Name] = true
		consume(slot+".input", "sink "+sink.Name, sink.Input, false)
	}

	unconsumed := func(slot, node string) {
		for i := 0; i < outputs[node]; i++ {
			r := ref{node: node, index: i}
			if _, ok := consumers[r.String()]; !ok {
				v.Add(slot, errors.ReasonUnclaimedStream, fmt.Sprintf("stream %s has no consumer", r))
			}
		}
	}
	for i, name := range def.Sources {
		unconsumed(fmt.Sprintf("sources[%d]", i), name)
	}
	for _, name := range stageNames {
		unconsumed(stageSlot(name, ""), name)
	}

	levels, cyclic := buildLevels(stageNames, edges)
	if len(cyclic) > 0 {
		v.Add("stages", errors.ReasonCycle, "cycle through "+strings.Join(cyclic, ", "))
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &plan{def: def, stages: stages, levels: levels}, nil
}

// checkStage records violations for fields a stage kind requires or forbids.
func checkStage(v *validation.Validator, s *StageDef) {
	single := func() {
		v.Required(stageSlot(s.Name, "input"), s.Input != "")
		v.Custom(len(s.Inputs) == 0, stageSlot(s.Name, "inputs"), errors.ReasonInvalid,
			s.Kind+" takes a single input")
	}
	multi := func(minInputs int) {
		v.Custom(s.Input == "", stageSlot(s.Name, "input"), errors.ReasonInvalid,
			s.Kind+" takes an inputs list")
		if len(s.Inputs) == 0 {
			v.Required(stageSlot(s.Name, "inputs"), false)
		} else {
			v.Range(stageSlot(s.Name, "inputs"), len(s.Inputs), minInputs, 1000)
		}
	}
	egressors := func() {
		v.Required(stageSlot(s.Name, "egressors"), s.Egressors > 0)
	}

	switch s.Kind {
	case KindClassify:
		single()
		egressors()
		v.Required(stageSlot(s.Name, "classifier"), s.Classifier != "")
		hasRoutes, hasDispatcher := len(s.Routes) > 0, s.Dispatcher != ""
		v.Custom(hasRoutes != hasDispatcher, stageSlot(s.Name, "dispatcher"), errors.ReasonInvalid,
			"exactly one of dispatcher or routes is required")
		for category, idx := range s.Routes {
			if s.Egressors > 0 && (idx < 0 || idx >= s.Egressors) {
				v.Add(stageSlot(s.Name, "routes."+category), errors.ReasonOutOfRange,
					fmt.Sprintf("route %q targets egress %d of %d", category, idx, s.Egressors))
			}
		}
	case KindProcess:
		single()
		v.Required(stageSlot(s.Name, "element"), s.Element != "")
	case KindClone:
		single()
		egressors()
	case KindJoin:
		multi(1)
	case KindJoinTransformClone:
		multi(2)
		egressors()
		v.Required(stageSlot(s.Name, "element"), s.Element != "")
	}
}

func stageSlot(name, field string) string {
	if field == "" {
		return "stages." + name
	}
	return "stages." + name + "." + field
}

// parseRef splits "name" or "name.N" into a node and output index.
func parseRef(raw string) (ref, bool) {
	i := strings.LastIndexByte(raw, '.')
	if i < 0 {
		return ref{node: raw}, raw != ""
	}
	idx, err := strconv.Atoi(raw[i+1:])
	if err != nil || idx < 0 || i == 0 {
		return ref{}, false
	}
	return ref{node: raw[:i], index: idx}, true
}
