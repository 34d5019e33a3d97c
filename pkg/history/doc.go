// Package history provides persistence for xmute's conversion jobs. It
// includes SQLite-based storage with WAL mode, connection pooling, and
// CRUD operations for jobs, plan steps, events, plugin records, cached
// plugin-source facts, and audit logs.
package history
