package history

import (
	"context"
	"database/sql"
	"time"
)

// JobStatus represents the status of a conversion job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// StepStatus represents the status of a single plan step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// EventLevel represents the severity level of an event.
type EventLevel string

const (
	EventLevelDebug   EventLevel = "debug"
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
)

// Job represents one execution of a graph.Plan against a source input.
type Job struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	Status      JobStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Metadata    string     `json:"metadata"` // JSON blob
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Step represents a single plan step's execution record within a job.
type Step struct {
	ID               string     `json:"id"`
	JobID            string     `json:"job_id"`
	StepIndex        int        `json:"step_index"`
	ConverterID      string     `json:"converter_id"`
	Operation        string     `json:"operation"`
	Status           StepStatus `json:"status"`
	InputProperties  string     `json:"input_properties"`          // JSON blob
	OutputProperties *string    `json:"output_properties,omitempty"` // JSON blob
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Error            *string    `json:"error,omitempty"`
	Retries          int        `json:"retries"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Event represents an append-only log event tied to a job and/or step.
type Event struct {
	ID        int64      `json:"id"`
	JobID     *string    `json:"job_id,omitempty"`
	StepID    *string    `json:"step_id,omitempty"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	Details   *string    `json:"details,omitempty"` // JSON blob
	Timestamp time.Time  `json:"timestamp"`
}

// PluginRecord is the last-known-good record of a loaded converter plugin:
// which binary (by hash) last ran, for integrity auditing across restarts.
type PluginRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // builtin, wasm, subprocess
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Hash       string    `json:"hash"` // SHA256 of the plugin binary/module
	LastJobID  string    `json:"last_job_id"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PluginFact caches a piece of metadata fetched from a remote plugin
// source (pkg/transport/sftp), such as a manifest or capability listing,
// to avoid re-fetching it for every job. TTL of 0 means no expiry.
type PluginFact struct {
	ID        string     `json:"id"`
	SourceID  string     `json:"source_id"` // plugin source host/path identifier
	Namespace string     `json:"namespace"` // e.g. "manifest", "capabilities"
	Key       string     `json:"key"`
	Value     string     `json:"value"` // JSON blob
	TTL       int        `json:"ttl"`   // seconds, 0 = no expiry
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AuditEntry represents an audit trail entry.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"` // e.g. "job.created", "plan.searched", "policy.violation"
	Actor     string    `json:"actor"`  // caller identifier
	TargetID  *string   `json:"target_id,omitempty"`
	Details   *string   `json:"details,omitempty"` // JSON blob
	IPAddress *string   `json:"ip_address,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for the persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Job operations
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	UpdateJobStatus(ctx context.Context, id string, status JobStatus, err *string) error
	ListJobs(ctx context.Context, limit, offset int) ([]*Job, error)
	DeleteJob(ctx context.Context, id string) error

	// Step operations
	CreateStep(ctx context.Context, step *Step) error
	GetStep(ctx context.Context, id string) (*Step, error)
	UpdateStepStatus(ctx context.Context, id string, status StepStatus, outputProperties *string, err *string) error
	ListStepsByJob(ctx context.Context, jobID string) ([]*Step, error)
	DeleteStep(ctx context.Context, id string) error
	IncrementStepRetries(ctx context.Context, id string) error

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, jobID *string, stepID *string, level *EventLevel, limit, offset int) ([]*Event, error)

	// PluginRecord operations
	UpsertPluginRecord(ctx context.Context, record *PluginRecord) error
	GetPluginRecord(ctx context.Context, kind, name, version string) (*PluginRecord, error)
	ListPluginRecords(ctx context.Context, limit, offset int) ([]*PluginRecord, error)
	DeletePluginRecord(ctx context.Context, id string) error

	// PluginFact operations
	UpsertPluginFact(ctx context.Context, fact *PluginFact) error
	GetPluginFact(ctx context.Context, sourceID, namespace, key string) (*PluginFact, error)
	ListPluginFacts(ctx context.Context, sourceID *string, namespace *string, limit, offset int) ([]*PluginFact, error)
	DeleteExpiredPluginFacts(ctx context.Context) (int64, error)
	DeletePluginFact(ctx context.Context, id string) error

	// Audit operations
	CreateAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, action *string, actor *string, limit, offset int) ([]*AuditEntry, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
