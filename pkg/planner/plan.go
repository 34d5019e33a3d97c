package planner

import "github.com/xmute-dev/xmute/pkg/graph"

// assemblePlan converts a winning search path into a graph.Plan, binding
// each step's input ports by arena+index: the most recent prior step
// producing a pattern-satisfying output for a given port is preferred, else
// the step binds to the job's initial source.
func assemblePlan(n *searchNode) *graph.Plan {
	steps := make([]graph.PlanStep, len(n.path))
	for i, rec := range n.path {
		inputs := make(map[string]graph.Binding, len(rec.Decl.Inputs))
		for portName, port := range rec.Decl.Inputs {
			inputs[portName] = bindInput(i, port, n.path)
		}
		outputs := make(map[string]graph.Properties, len(rec.Decl.Outputs))
		cardinalities := make(map[string]graph.Cardinality, len(rec.Decl.Outputs))
		for portName, port := range rec.Decl.Outputs {
			outputs[portName] = rec.OutputProperties
			cardinalities[portName] = port.Cardinality()
		}
		steps[i] = graph.PlanStep{
			ConverterID:       rec.ConverterID,
			Inputs:            inputs,
			Outputs:           outputs,
			OutputCardinality: cardinalities,
			Options:           rec.Options,
		}
	}

	final := n.state.Properties
	finalCardinality := n.state.Cardinality
	if len(n.path) > 0 {
		final = n.path[len(n.path)-1].OutputProperties
		finalCardinality = n.path[len(n.path)-1].OutputCardinality
	}

	return &graph.Plan{
		Steps:            steps,
		FinalProperties:  final,
		FinalCardinality: finalCardinality,
	}
}

// bindInput finds the most recent earlier step whose output satisfies
// port's pattern (taking that step's output port with the lowest name),
// else falls back to the job's initial source. Searching
// backward favours the freshest compatible output, matching how the search
// itself only ever moves forward through states.
func bindInput(stepIndex int, port graph.Port, path []stepRecord) graph.Binding {
	for j := stepIndex - 1; j >= 0; j-- {
		if port.Pattern.Match(path[j].OutputProperties) && path[j].OutputCardinality == port.Cardinality() {
			first, found := "", false
			for outPort := range path[j].Decl.Outputs {
				if !found || outPort < first {
					first, found = outPort, true
				}
			}
			if found {
				return graph.FromStep(j, first)
			}
		}
	}
	return graph.Initial()
}
