package graph

// SourceKind tags where a PlanStep's input port binding draws its value
// from: the job's initial source, or a prior step's output port.
type SourceKind int

const (
	// SourceInitial binds to the job's starting bytes/Properties.
	SourceInitial SourceKind = iota
	// SourceStep binds to an earlier step's output port.
	SourceStep
)

// Binding is a pure data reference: arena+index, never a back-pointer. A
// step's input port is bound either to the initial source or to
// (StepIndex, Port) of an earlier step, per the no-back-pointer design note.
type Binding struct {
	Kind      SourceKind
	StepIndex int    // valid when Kind == SourceStep
	Port      string // output port name on the referenced step
}

// Initial returns a Binding to the job's starting input.
func Initial() Binding { return Binding{Kind: SourceInitial} }

// FromStep returns a Binding to an earlier step's named output port.
func FromStep(stepIndex int, port string) Binding {
	return Binding{Kind: SourceStep, StepIndex: stepIndex, Port: port}
}

// PlanStep is one converter application within a Plan. Inputs maps each of
// the converter's input-port names to where its value comes from. Outputs
// records the predicted post-step Properties for each output port, computed
// by the planner at search time so the executor never has to re-derive it.
type PlanStep struct {
	ConverterID string
	Inputs      map[string]Binding
	Outputs     map[string]Properties
	// OutputCardinality records whether each output port on this step
	// carries One or Many items, mirroring the converter decl's port flags.
	OutputCardinality map[string]Cardinality
	// Options is the caller/planner-supplied options bag passed to Convert
	// for this step (e.g. a resize step's options-width bound by the
	// planner to satisfy a target's max_width).
	Options Properties
}

// Plan is an ordered, immutable sequence of PlanSteps plus the final
// Properties state expected to match the target pattern. Steps reference
// earlier steps by integer index (arena+index), never by pointer.
type Plan struct {
	Steps           []PlanStep
	FinalProperties Properties
	FinalCardinality Cardinality
}

// StepCount returns the number of steps in the plan.
func (p *Plan) StepCount() int { return len(p.Steps) }

// LastOutputPort returns the (stepIndex, port) of the final step's first
// output port by name, used when a caller doesn't disambiguate a
// multi-output plan.
func (p *Plan) LastOutputPort() (int, string, bool) {
	if len(p.Steps) == 0 {
		return 0, "", false
	}
	last := len(p.Steps) - 1
	first, found := "", false
	for port := range p.Steps[last].Outputs {
		if !found || port < first {
			first, found = port, true
		}
	}
	if !found {
		return 0, "", false
	}
	return last, first, true
}
