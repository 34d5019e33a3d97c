package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/planner"
)

func newPlanCommand() *cobra.Command {
	var (
		fromProps []string
		toProps   []string
		objective string
		outFile   string
		many      bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Search the converter registry for a path to a target",
		Long: `Searches the registered converters for a sequence of conversions from a
starting property state to a target pattern, and prints (or saves) the
resulting plan as JSON.`,
		Example: `  # Plan a conversion from a PNG to a JPEG under 1024px wide
  xmute plan --from format=png --to format=jpeg --to max_width=1024

  # Optimise for quality instead of step count
  xmute plan --from format=png --to format=webp --objective quality`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			start, err := parseProperties(fromProps)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			pattern, err := parsePattern(toProps)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			cardinality := graph.One
			if many {
				cardinality = graph.Many
			}

			reg, closer, err := buildRegistry(ctx)
			if err != nil {
				return err
			}
			defer closer()

			log.Info().
				Strs("from", fromProps).
				Strs("to", toProps).
				Str("objective", objective).
				Int("converters", len(reg.Converters())).
				Msg("searching for a plan")

			p := planner.New(reg)
			plan, err := p.Plan(start, cardinality, planner.Target{Pattern: pattern, Cardinality: cardinality}, objective)
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}

			return writePlan(plan, outFile)
		},
	}

	cmd.Flags().StringArrayVar(&fromProps, "from", nil, "starting property, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&toProps, "to", nil, "target property constraint, key=value (repeatable)")
	cmd.Flags().StringVar(&objective, "objective", "", "optimisation objective: quality, speed, size, or empty for fewest steps")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the plan as JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&many, "many", false, "treat both the source and the target as lists (many-to-many) instead of single items")

	return cmd
}

// parseProperties turns a list of key=value flags into a Properties bag,
// guessing Value kind from the literal's shape (bool, int, float, then
// string).
func parseProperties(kvs []string) (graph.Properties, error) {
	props := make(graph.Properties, len(kvs))
	for _, kv := range kvs {
		k, v, err := splitKV(kv)
		if err != nil {
			return nil, err
		}
		props[k] = literalValue(v)
	}
	return props, nil
}

// parsePattern turns a list of key=value flags into an exact-match
// PropertyPattern, one Predicate per key.
func parsePattern(kvs []string) (graph.PropertyPattern, error) {
	pattern := make(graph.PropertyPattern, len(kvs))
	for _, kv := range kvs {
		k, v, err := splitKV(kv)
		if err != nil {
			return nil, err
		}
		pattern[k] = graph.Exact(literalValue(v))
	}
	return pattern, nil
}

func splitKV(s string) (string, string, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return parts[0], parts[1], nil
}

func literalValue(s string) graph.Value {
	if b, err := strconv.ParseBool(s); err == nil {
		return graph.Bool(b)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return graph.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return graph.Float(f)
	}
	return graph.String(s)
}

// planJSON is the plan's wire shape for the CLI's JSON output; graph.Plan
// itself carries no struct tags since its primary consumer is the executor,
// not a serialisation boundary.
type planJSON struct {
	Steps            []stepJSON `json:"steps"`
	FinalCardinality string     `json:"final_cardinality"`
}

type stepJSON struct {
	ConverterID string `json:"converter_id"`
}

func writePlan(plan *graph.Plan, outFile string) error {
	out := planJSON{FinalCardinality: plan.FinalCardinality.String()}
	for _, step := range plan.Steps {
		out.Steps = append(out.Steps, stepJSON{ConverterID: step.ConverterID})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	if outFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	fmt.Printf("Plan written to %s (%d steps)\n", outFile, len(plan.Steps))
	return nil
}
