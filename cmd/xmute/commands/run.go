package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xmute-dev/xmute/pkg/budget"
	"github.com/xmute-dev/xmute/pkg/executor"
	"github.com/xmute-dev/xmute/pkg/graph"
	"github.com/xmute-dev/xmute/pkg/planner"
)

func newRunCommand() *cobra.Command {
	var (
		fromProps   []string
		toProps     []string
		objective   string
		inputFile   string
		outputFile  string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and execute a conversion against real bytes",
		Long: `Searches for a conversion plan from the starting properties to the target
pattern, then runs that plan against the bytes read from --input, writing
the result to --output.`,
		Example: `  xmute run --input photo.png --output thumb.jpg \
      --from format=png --to format=jpeg --to max_width=256`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if inputFile == "" {
				return fmt.Errorf("--input is required")
			}

			start, err := parseProperties(fromProps)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			pattern, err := parsePattern(toProps)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			input, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			reg, closer, err := buildRegistry(ctx)
			if err != nil {
				return err
			}
			defer closer()

			p := planner.New(reg)
			plan, err := p.Plan(start, graph.One, planner.Target{Pattern: pattern, Cardinality: graph.One}, objective)
			if err != nil {
				return fmt.Errorf("plan: %w", err)
			}

			log.Info().Int("steps", len(plan.Steps)).Msg("executing plan")

			var exec executor.Executor
			if parallelism > 1 {
				exec = executor.NewParallel(reg, budget.New(budget.Unbounded), parallelism)
			} else {
				exec = executor.NewSequential(reg)
			}

			result, err := exec.Execute(ctx, executor.NewCancel(), executor.Job{
				Plan:       plan,
				Input:      input,
				Properties: start,
			})
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}

			if outputFile != "" {
				if err := os.WriteFile(outputFile, result.Output, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Printf("Wrote %d bytes to %s (%d steps, %s)\n",
					len(result.Output), outputFile, result.Stats.StepsExecuted, result.Stats.Duration)
				return nil
			}

			if _, err := os.Stdout.Write(result.Output); err != nil {
				return fmt.Errorf("write stdout: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fromProps, "from", nil, "starting property, key=value (repeatable)")
	cmd.Flags().StringArrayVar(&toProps, "to", nil, "target property constraint, key=value (repeatable)")
	cmd.Flags().StringVar(&objective, "objective", "", "optimisation objective: quality, speed, size, or empty for fewest steps")
	cmd.Flags().StringVar(&inputFile, "input", "", "input file path")
	cmd.Flags().StringVar(&outputFile, "output", "", "output file path (stdout if omitted)")
	cmd.Flags().IntVar(&parallelism, "parallelism", 1, "worker count; >1 selects the parallel executor (a single run still executes its steps in order)")

	return cmd
}
