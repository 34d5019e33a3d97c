package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction.
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction.
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction.
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateJob creates a new job record.
func (s *SQLiteStore) CreateJob(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO jobs (id, plan_id, status, started_at, completed_at, error, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.PlanID,
		job.Status,
		job.StartedAt,
		job.CompletedAt,
		job.Error,
		job.Metadata,
		job.CreatedAt,
		job.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*Job, error) {
	query := `
		SELECT id, plan_id, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM jobs
		WHERE id = ?
	`

	job := &Job{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.PlanID,
		&job.Status,
		&job.StartedAt,
		&job.CompletedAt,
		&job.Error,
		&job.Metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// UpdateJobStatus updates the status of a job.
func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, id string, status JobStatus, errMsg *string) error {
	query := `
		UPDATE jobs
		SET status = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	var completedAt *time.Time
	if status == JobStatusCompleted || status == JobStatusFailed || status == JobStatusCancelled {
		now := time.Now()
		completedAt = &now
	}

	result, err := s.db.ExecContext(ctx, query, status, errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

// ListJobs lists jobs with pagination.
func (s *SQLiteStore) ListJobs(ctx context.Context, limit, offset int) ([]*Job, error) {
	query := `
		SELECT id, plan_id, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM jobs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		job := &Job{}
		err := rows.Scan(
			&job.ID,
			&job.PlanID,
			&job.Status,
			&job.StartedAt,
			&job.CompletedAt,
			&job.Error,
			&job.Metadata,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

// DeleteJob deletes a job by ID.
func (s *SQLiteStore) DeleteJob(ctx context.Context, id string) error {
	query := `DELETE FROM jobs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

// CreateStep creates a new plan step execution record.
func (s *SQLiteStore) CreateStep(ctx context.Context, step *Step) error {
	query := `
		INSERT INTO steps (
			id, job_id, step_index, converter_id, operation, status,
			input_properties, output_properties,
			started_at, completed_at, error, retries, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		step.ID,
		step.JobID,
		step.StepIndex,
		step.ConverterID,
		step.Operation,
		step.Status,
		step.InputProperties,
		step.OutputProperties,
		step.StartedAt,
		step.CompletedAt,
		step.Error,
		step.Retries,
		step.CreatedAt,
		step.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create step: %w", err)
	}

	return nil
}

// GetStep retrieves a plan step by ID.
func (s *SQLiteStore) GetStep(ctx context.Context, id string) (*Step, error) {
	query := `
		SELECT id, job_id, step_index, converter_id, operation, status,
			   input_properties, output_properties,
			   started_at, completed_at, error, retries, created_at, updated_at
		FROM steps
		WHERE id = ?
	`

	step := &Step{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&step.ID,
		&step.JobID,
		&step.StepIndex,
		&step.ConverterID,
		&step.Operation,
		&step.Status,
		&step.InputProperties,
		&step.OutputProperties,
		&step.StartedAt,
		&step.CompletedAt,
		&step.Error,
		&step.Retries,
		&step.CreatedAt,
		&step.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("step not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}

	return step, nil
}

// UpdateStepStatus updates the status of a plan step.
func (s *SQLiteStore) UpdateStepStatus(ctx context.Context, id string, status StepStatus, outputProperties *string, errMsg *string) error {
	query := `
		UPDATE steps
		SET status = ?, output_properties = ?, error = ?,
			started_at = CASE WHEN started_at IS NULL AND ? = 'running' THEN CURRENT_TIMESTAMP ELSE started_at END,
			completed_at = CASE WHEN ? IN ('completed', 'failed', 'skipped') THEN CURRENT_TIMESTAMP ELSE completed_at END
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, status, outputProperties, errMsg, status, status, id)
	if err != nil {
		return fmt.Errorf("failed to update step status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("step not found: %s", id)
	}

	return nil
}

// ListStepsByJob lists all plan steps for a job, in execution order.
func (s *SQLiteStore) ListStepsByJob(ctx context.Context, jobID string) ([]*Step, error) {
	query := `
		SELECT id, job_id, step_index, converter_id, operation, status,
			   input_properties, output_properties,
			   started_at, completed_at, error, retries, created_at, updated_at
		FROM steps
		WHERE job_id = ?
		ORDER BY step_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	steps := []*Step{}
	for rows.Next() {
		step := &Step{}
		err := rows.Scan(
			&step.ID,
			&step.JobID,
			&step.StepIndex,
			&step.ConverterID,
			&step.Operation,
			&step.Status,
			&step.InputProperties,
			&step.OutputProperties,
			&step.StartedAt,
			&step.CompletedAt,
			&step.Error,
			&step.Retries,
			&step.CreatedAt,
			&step.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

// DeleteStep deletes a plan step by ID.
func (s *SQLiteStore) DeleteStep(ctx context.Context, id string) error {
	query := `DELETE FROM steps WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("step not found: %s", id)
	}

	return nil
}

// IncrementStepRetries increments the retry counter for a plan step.
func (s *SQLiteStore) IncrementStepRetries(ctx context.Context, id string) error {
	query := `UPDATE steps SET retries = retries + 1 WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("step not found: %s", id)
	}

	return nil
}

// AppendEvent appends a new event to the log.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (job_id, step_id, level, message, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.JobID,
		event.StepID,
		event.Level,
		event.Message,
		event.Details,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}

	event.ID = id
	return nil
}

// GetEvents retrieves events with optional filters and pagination.
func (s *SQLiteStore) GetEvents(ctx context.Context, jobID *string, stepID *string, level *EventLevel, limit, offset int) ([]*Event, error) {
	query := `
		SELECT id, job_id, step_id, level, message, details, timestamp
		FROM events
		WHERE (? IS NULL OR job_id = ?)
		  AND (? IS NULL OR step_id = ?)
		  AND (? IS NULL OR level = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, jobID, jobID, stepID, stepID, level, level, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID,
			&event.JobID,
			&event.StepID,
			&event.Level,
			&event.Message,
			&event.Details,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// UpsertPluginRecord inserts or updates a plugin's last-used record.
func (s *SQLiteStore) UpsertPluginRecord(ctx context.Context, record *PluginRecord) error {
	query := `
		INSERT INTO plugin_records (
			id, kind, name, version, hash, last_job_id, last_used_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, name, version) DO UPDATE SET
			hash = excluded.hash,
			last_job_id = excluded.last_job_id,
			last_used_at = excluded.last_used_at
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Kind,
		record.Name,
		record.Version,
		record.Hash,
		record.LastJobID,
		record.LastUsedAt,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert plugin record: %w", err)
	}

	return nil
}

// GetPluginRecord retrieves a plugin record by kind, name, and version.
func (s *SQLiteStore) GetPluginRecord(ctx context.Context, kind, name, version string) (*PluginRecord, error) {
	query := `
		SELECT id, kind, name, version, hash, last_job_id, last_used_at, created_at, updated_at
		FROM plugin_records
		WHERE kind = ? AND name = ? AND version = ?
	`

	record := &PluginRecord{}
	err := s.db.QueryRowContext(ctx, query, kind, name, version).Scan(
		&record.ID,
		&record.Kind,
		&record.Name,
		&record.Version,
		&record.Hash,
		&record.LastJobID,
		&record.LastUsedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plugin record not found: %s/%s/%s", kind, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin record: %w", err)
	}

	return record, nil
}

// ListPluginRecords lists all plugin records with pagination.
func (s *SQLiteStore) ListPluginRecords(ctx context.Context, limit, offset int) ([]*PluginRecord, error) {
	query := `
		SELECT id, kind, name, version, hash, last_job_id, last_used_at, created_at, updated_at
		FROM plugin_records
		ORDER BY last_used_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin records: %w", err)
	}
	defer rows.Close()

	records := []*PluginRecord{}
	for rows.Next() {
		record := &PluginRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Kind,
			&record.Name,
			&record.Version,
			&record.Hash,
			&record.LastJobID,
			&record.LastUsedAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plugin record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plugin records: %w", err)
	}

	return records, nil
}

// DeletePluginRecord deletes a plugin record by ID.
func (s *SQLiteStore) DeletePluginRecord(ctx context.Context, id string) error {
	query := `DELETE FROM plugin_records WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plugin record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("plugin record not found: %s", id)
	}

	return nil
}

// UpsertPluginFact inserts or updates a cached plugin-source fact.
func (s *SQLiteStore) UpsertPluginFact(ctx context.Context, fact *PluginFact) error {
	query := `
		INSERT INTO plugin_facts (
			id, source_id, namespace, key, value, ttl, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, namespace, key) DO UPDATE SET
			value = excluded.value,
			ttl = excluded.ttl,
			expires_at = excluded.expires_at
	`

	var expiresAtStr *string
	if fact.ExpiresAt != nil {
		formatted := fact.ExpiresAt.UTC().Format("2006-01-02 15:04:05")
		expiresAtStr = &formatted
	}

	_, err := s.db.ExecContext(ctx, query,
		fact.ID,
		fact.SourceID,
		fact.Namespace,
		fact.Key,
		fact.Value,
		fact.TTL,
		expiresAtStr,
		fact.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		fact.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert plugin fact: %w", err)
	}

	return nil
}

// GetPluginFact retrieves a plugin fact by source, namespace, and key.
func (s *SQLiteStore) GetPluginFact(ctx context.Context, sourceID, namespace, key string) (*PluginFact, error) {
	query := `
		SELECT id, source_id, namespace, key, value, ttl, expires_at, created_at, updated_at
		FROM plugin_facts
		WHERE source_id = ? AND namespace = ? AND key = ?
		  AND (expires_at IS NULL OR datetime(expires_at) > datetime('now'))
	`

	fact := &PluginFact{}
	err := s.db.QueryRowContext(ctx, query, sourceID, namespace, key).Scan(
		&fact.ID,
		&fact.SourceID,
		&fact.Namespace,
		&fact.Key,
		&fact.Value,
		&fact.TTL,
		&fact.ExpiresAt,
		&fact.CreatedAt,
		&fact.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("plugin fact not found or expired: %s/%s/%s", sourceID, namespace, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plugin fact: %w", err)
	}

	return fact, nil
}

// ListPluginFacts lists plugin facts with optional filters and pagination.
func (s *SQLiteStore) ListPluginFacts(ctx context.Context, sourceID *string, namespace *string, limit, offset int) ([]*PluginFact, error) {
	query := `
		SELECT id, source_id, namespace, key, value, ttl, expires_at, created_at, updated_at
		FROM plugin_facts
		WHERE (? IS NULL OR source_id = ?)
		  AND (? IS NULL OR namespace = ?)
		  AND (expires_at IS NULL OR datetime(expires_at) > datetime('now'))
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, sourceID, sourceID, namespace, namespace, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list plugin facts: %w", err)
	}
	defer rows.Close()

	facts := []*PluginFact{}
	for rows.Next() {
		fact := &PluginFact{}
		err := rows.Scan(
			&fact.ID,
			&fact.SourceID,
			&fact.Namespace,
			&fact.Key,
			&fact.Value,
			&fact.TTL,
			&fact.ExpiresAt,
			&fact.CreatedAt,
			&fact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plugin fact: %w", err)
		}
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plugin facts: %w", err)
	}

	return facts, nil
}

// DeleteExpiredPluginFacts deletes all expired plugin facts.
func (s *SQLiteStore) DeleteExpiredPluginFacts(ctx context.Context) (int64, error) {
	query := `DELETE FROM plugin_facts WHERE expires_at IS NOT NULL AND datetime(expires_at) <= datetime('now')`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired plugin facts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// DeletePluginFact deletes a plugin fact by ID.
func (s *SQLiteStore) DeletePluginFact(ctx context.Context, id string) error {
	query := `DELETE FROM plugin_facts WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete plugin fact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("plugin fact not found: %s", id)
	}

	return nil
}

// CreateAuditEntry creates a new audit log entry.
func (s *SQLiteStore) CreateAuditEntry(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO audit (action, actor, target_id, details, ip_address, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		entry.Action,
		entry.Actor,
		entry.TargetID,
		entry.Details,
		entry.IPAddress,
		entry.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// ListAuditEntries lists audit entries with optional filters and pagination.
func (s *SQLiteStore) ListAuditEntries(ctx context.Context, action *string, actor *string, limit, offset int) ([]*AuditEntry, error) {
	query := `
		SELECT id, action, actor, target_id, details, ip_address, timestamp
		FROM audit
		WHERE (? IS NULL OR action = ?)
		  AND (? IS NULL OR actor = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, action, action, actor, actor, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*AuditEntry{}
	for rows.Next() {
		entry := &AuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Actor,
			&entry.TargetID,
			&entry.Details,
			&entry.IPAddress,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
