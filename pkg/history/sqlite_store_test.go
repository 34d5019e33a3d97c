package history

import (
	"context"
	"testing"
	"time"
)

// setupTestStore creates an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	tables := []string{"jobs", "steps", "events", "plugin_records", "plugin_facts", "audit"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		if err := store.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestJobCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	job := &Job{
		ID:        "job-001",
		PlanID:    "plan-resize-thumbnail",
		Status:    JobStatusPending,
		StartedAt: time.Now(),
		Metadata:  `{}`,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.PlanID != job.PlanID {
		t.Errorf("PlanID = %q, want %q", got.PlanID, job.PlanID)
	}

	errMsg := "plugin subprocess crashed"
	if err := store.UpdateJobStatus(ctx, job.ID, JobStatusFailed, &errMsg); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}

	got, err = store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob after update failed: %v", err)
	}
	if got.Status != JobStatusFailed {
		t.Errorf("Status = %q, want %q", got.Status, JobStatusFailed)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set for a terminal status")
	}

	jobs, err := store.ListJobs(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("len(jobs) = %d, want 1", len(jobs))
	}

	if err := store.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	if _, err := store.GetJob(ctx, job.ID); err == nil {
		t.Error("GetJob should fail after deletion")
	}
}

func TestStepCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	job := &Job{ID: "job-002", PlanID: "plan-x", Status: JobStatusRunning, StartedAt: time.Now(), Metadata: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	step := &Step{
		ID:              "step-001",
		JobID:           job.ID,
		StepIndex:       0,
		ConverterID:     "resize-lanczos",
		Operation:       "convert",
		Status:          StepStatusPending,
		InputProperties: `{"width":800}`,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := store.CreateStep(ctx, step); err != nil {
		t.Fatalf("CreateStep failed: %v", err)
	}

	out := `{"width":200,"height":200}`
	if err := store.UpdateStepStatus(ctx, step.ID, StepStatusCompleted, &out, nil); err != nil {
		t.Fatalf("UpdateStepStatus failed: %v", err)
	}

	got, err := store.GetStep(ctx, step.ID)
	if err != nil {
		t.Fatalf("GetStep failed: %v", err)
	}
	if got.Status != StepStatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StepStatusCompleted)
	}
	if got.OutputProperties == nil || *got.OutputProperties != out {
		t.Errorf("OutputProperties = %v, want %q", got.OutputProperties, out)
	}

	if err := store.IncrementStepRetries(ctx, step.ID); err != nil {
		t.Fatalf("IncrementStepRetries failed: %v", err)
	}
	got, _ = store.GetStep(ctx, step.ID)
	if got.Retries != 1 {
		t.Errorf("Retries = %d, want 1", got.Retries)
	}

	steps, err := store.ListStepsByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("ListStepsByJob failed: %v", err)
	}
	if len(steps) != 1 {
		t.Errorf("len(steps) = %d, want 1", len(steps))
	}
}

func TestEventOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	job := &Job{ID: "job-003", PlanID: "plan-x", Status: JobStatusRunning, StartedAt: time.Now(), Metadata: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_ = store.CreateJob(ctx, job)

	event := &Event{
		JobID:     &job.ID,
		Level:     EventLevelWarning,
		Message:   "converter reported a degraded result",
		Timestamp: time.Now(),
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	if event.ID == 0 {
		t.Error("event ID should be set after insert")
	}

	level := EventLevelWarning
	events, err := store.GetEvents(ctx, &job.ID, nil, &level, 10, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Message != event.Message {
		t.Errorf("Message = %q, want %q", events[0].Message, event.Message)
	}
}

func TestPluginRecordOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	job := &Job{ID: "job-004", PlanID: "plan-x", Status: JobStatusCompleted, StartedAt: time.Now(), Metadata: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_ = store.CreateJob(ctx, job)

	record := &PluginRecord{
		ID:         "plugin-001",
		Kind:       "wasm",
		Name:       "resize-lanczos",
		Version:    "1.0.0",
		Hash:       "hash-v1",
		LastJobID:  job.ID,
		LastUsedAt: time.Now(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := store.UpsertPluginRecord(ctx, record); err != nil {
		t.Fatalf("UpsertPluginRecord (insert) failed: %v", err)
	}

	record.Hash = "hash-v2"
	if err := store.UpsertPluginRecord(ctx, record); err != nil {
		t.Fatalf("UpsertPluginRecord (update) failed: %v", err)
	}

	got, err := store.GetPluginRecord(ctx, "wasm", "resize-lanczos", "1.0.0")
	if err != nil {
		t.Fatalf("GetPluginRecord failed: %v", err)
	}
	if got.Hash != "hash-v2" {
		t.Errorf("Hash = %q, want %q (upsert should update, not duplicate)", got.Hash, "hash-v2")
	}

	records, err := store.ListPluginRecords(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListPluginRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}

	if err := store.DeletePluginRecord(ctx, record.ID); err != nil {
		t.Fatalf("DeletePluginRecord failed: %v", err)
	}
}

func TestPluginFactOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	fact := &PluginFact{
		ID:        "fact-001",
		SourceID:  "sftp://plugins.internal/converters",
		Namespace: "manifest",
		Key:       "resize-lanczos",
		Value:     `{"formats":["png"]}`,
		TTL:       0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.UpsertPluginFact(ctx, fact); err != nil {
		t.Fatalf("UpsertPluginFact failed: %v", err)
	}

	got, err := store.GetPluginFact(ctx, fact.SourceID, fact.Namespace, fact.Key)
	if err != nil {
		t.Fatalf("GetPluginFact failed: %v", err)
	}
	if got.Value != fact.Value {
		t.Errorf("Value = %q, want %q", got.Value, fact.Value)
	}

	expired := &PluginFact{
		ID:        "fact-002",
		SourceID:  fact.SourceID,
		Namespace: "manifest",
		Key:       "expired-converter",
		Value:     `{}`,
		TTL:       1,
		ExpiresAt: timePtr(time.Now().Add(-time.Hour)),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.UpsertPluginFact(ctx, expired); err != nil {
		t.Fatalf("UpsertPluginFact (expired) failed: %v", err)
	}

	if _, err := store.GetPluginFact(ctx, expired.SourceID, expired.Namespace, expired.Key); err == nil {
		t.Error("GetPluginFact should not return an expired fact")
	}

	deleted, err := store.DeleteExpiredPluginFacts(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredPluginFacts failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestAuditOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	entry := &AuditEntry{
		Action:    "job.created",
		Actor:     "cli",
		Timestamp: time.Now(),
	}
	if err := store.CreateAuditEntry(ctx, entry); err != nil {
		t.Fatalf("CreateAuditEntry failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("audit entry ID should be set after insert")
	}

	action := "job.created"
	entries, err := store.ListAuditEntries(ctx, &action, nil, 10, 0)
	if err != nil {
		t.Fatalf("ListAuditEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}

func TestTransactions(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (id, plan_id, status, started_at, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"job-tx", "plan-x", "pending", now, "{}", now, now)
	if err != nil {
		_ = store.RollbackTx(tx)
		t.Fatalf("insert within tx failed: %v", err)
	}

	if err := store.CommitTx(tx); err != nil {
		t.Fatalf("CommitTx failed: %v", err)
	}

	if _, err := store.GetJob(ctx, "job-tx"); err != nil {
		t.Fatalf("GetJob after commit failed: %v", err)
	}
}

func TestCascadeDelete(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	job := &Job{ID: "job-005", PlanID: "plan-x", Status: JobStatusRunning, StartedAt: time.Now(), Metadata: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_ = store.CreateJob(ctx, job)

	step := &Step{ID: "step-005", JobID: job.ID, StepIndex: 0, ConverterID: "resize-lanczos", Operation: "convert", Status: StepStatusPending, InputProperties: "{}", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateStep(ctx, step); err != nil {
		t.Fatalf("CreateStep failed: %v", err)
	}

	_ = store.AppendEvent(ctx, &Event{JobID: &job.ID, StepID: &step.ID, Level: EventLevelInfo, Message: "running", Timestamp: time.Now()})

	if err := store.DeleteJob(ctx, job.ID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}

	if _, err := store.GetStep(ctx, step.ID); err == nil {
		t.Error("step should have been cascade-deleted with its job")
	}

	events, err := store.GetEvents(ctx, nil, nil, nil, 10, 0)
	if err != nil {
		t.Fatalf("GetEvents failed: %v", err)
	}
	for _, e := range events {
		if e.JobID != nil && *e.JobID == job.ID {
			t.Error("event should have been cascade-deleted with its job")
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
