// Package store provides SQLite-backed storage for the artifact catalog.
//
// The artifacts table is an append-only version log:
//   - A logical artifact is identified by artifact_id
//   - Each version is a separate row; corrections append, never update
//   - Files, links, tags and aliases reference a version row, not the
//     logical id, so each version is self-contained
//
// # Reads
//
// Reads are expressed as queryir plans and compiled by querysql. A Batch
// groups the statements for one page and runs them in one read-only
// transaction; with WAL that gives every statement the same snapshot.
//
// # Database Configuration
//
//   - WAL mode: Snapshot reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
