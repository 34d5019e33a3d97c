package convert

import (
	"context"

	"github.com/xmute-dev/xmute/pkg/graph"
)

// Item is a single (bytes, Properties) pair flowing through one port.
type Item struct {
	Bytes      []byte
	Properties graph.Properties
}

// PortValue is the value carried by one port: either a single Item (when the
// port's List flag is false) or a homogeneous list of Items (when true).
// Exactly one of Item/Items is populated, matching the port's declared
// cardinality; callers should consult the decl rather than guess from shape.
type PortValue struct {
	Item  Item
	Items []Item
	List  bool
}

// Single wraps one Item as a non-list PortValue.
func Single(it Item) PortValue { return PortValue{Item: it} }

// Batch wraps a list of Items as a list PortValue.
func Batch(items []Item) PortValue { return PortValue{Items: items, List: true} }

// Inputs maps input-port name to its bound value for one Convert call.
type Inputs map[string]PortValue

// Outputs maps output-port name to its produced value.
type Outputs map[string]PortValue

// Converter is the narrow contract the core interacts with plug-in
// converters through: a static declaration plus a single conversion
// operation. Implementations must not panic on inputs failing their
// declared input pattern — the planner guarantees pre-conditions are met,
// but Convert may still return a ConvertError when a runtime check (e.g.
// schema validation) fails. Converters must be free of process-wide mutable
// state except through resources explicitly declared via options.
type Converter interface {
	// Decl returns the converter's static declaration.
	Decl() *ConverterDecl

	// Convert runs the transformation. options is a caller-supplied
	// Properties bag of parameters (e.g. resize width, quality level). ctx
	// carries cancellation; long-running converters should poll ctx.Err().
	Convert(ctx context.Context, inputs Inputs, options graph.Properties) (Outputs, error)
}
