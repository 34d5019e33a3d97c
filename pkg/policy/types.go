package policy

import "time"

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should block operations.
	SeverityError Severity = "error"

	// SeverityCritical is for critical violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation against an options bag.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Key names the offending option, when the violation traces to one.
	Key string `json:"key,omitempty"`
}

// Result represents the outcome of evaluating every enabled policy against
// one options bag.
type Result struct {
	// Allowed indicates whether the options bag passes every enabled
	// policy at Error severity or above.
	Allowed bool `json:"allowed"`

	// Violations lists every denial any enabled policy produced.
	Violations []Violation `json:"violations,omitempty"`

	// EvaluatedAt is when the policy set was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// PolicyBundle is a named, versioned set of custom policies distributed
// together, e.g. an organization's house style for the option vocabulary.
type PolicyBundle struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Policies    []Policy  `json:"policies"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input is the document Rego policies receive: the caller-supplied options
// bag for one conversion step, widened to plain Go values so Rego's engine
// can index into it (graph.Value round-trips through JSON for this, see
// propertiesToMap in engine.go).
type Input struct {
	Options   map[string]interface{} `json:"options"`
	Operation string                 `json:"operation,omitempty"`
}
