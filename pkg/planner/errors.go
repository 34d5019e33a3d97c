package planner

import (
	"fmt"

	"github.com/xmute-dev/xmute/pkg/convert"
	"github.com/xmute-dev/xmute/pkg/graph"
)

// PlanError is returned when the search exhausts without finding a path. It
// follows the same shape as convert.ConvertError (Kind + message + details)
// so callers can use a single error-kind switch across the core.
type PlanError struct {
	Kind    convert.Kind // always convert.KindNoPath
	Message string
	From    graph.Properties
	To      Target
	// Closest is the furthest (lowest-h) state the search reached, for
	// diagnostics.
	Closest graph.Properties
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("[%s] %s (from=%v, to=%v)", e.Kind, e.Message, e.From, e.To.Pattern.Keys())
}

func newNoPath(from graph.Properties, to Target, closest graph.Properties) *PlanError {
	return &PlanError{
		Kind:    convert.KindNoPath,
		Message: "no path found from source state to target pattern",
		From:    from,
		To:      to,
		Closest: closest,
	}
}
