package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xmute-dev/xmute/pkg/policy"
)

func newValidateCommand() *cobra.Command {
	var (
		options     []string
		operation   string
		policyPaths []string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a conversion options bag against scope-boundary policy",
		Long: `Evaluates a set of conversion options (the same key=value bag a converter
would receive) against the built-in scope-boundary policies plus any
custom policy files supplied via --policy, and reports violations.`,
		Example: `  xmute validate --operation resize --option max_width=4096 --option quality=2.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := parseProperties(options)
			if err != nil {
				return fmt.Errorf("--option: %w", err)
			}

			engine, err := policy.NewEngine(log.Logger)
			if err != nil {
				return fmt.Errorf("start policy engine: %w", err)
			}

			if len(policyPaths) > 0 {
				if err := engine.LoadPolicies(ctx, policyPaths); err != nil {
					return fmt.Errorf("load policies: %w", err)
				}
			}

			result, err := engine.Evaluate(ctx, opts, operation)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			if result.Allowed {
				fmt.Printf("OK: %d polic(ies) evaluated, no violations\n", len(result.EvaluatedPolicies))
				return nil
			}

			fmt.Printf("REJECTED: %d violation(s)\n", len(result.Violations))
			for _, v := range result.Violations {
				fmt.Printf("  [%s] %s: %s\n", v.Severity, v.Policy, v.Message)
			}
			return fmt.Errorf("policy violations found")
		},
	}

	cmd.Flags().StringArrayVar(&options, "option", nil, "conversion option, key=value (repeatable)")
	cmd.Flags().StringVar(&operation, "operation", "", "converter operation name the options target")
	cmd.Flags().StringArrayVar(&policyPaths, "policy", nil, "additional policy file or directory path (repeatable)")

	return cmd
}
