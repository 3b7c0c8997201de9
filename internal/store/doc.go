// Package store archives projection runs in SQLite.
//
// A run is written as one record in runs plus its monthly trace and annual
// CY/FY tables, all in a single transaction: a failed write leaves nothing
// behind.
//
// # Identity and Ordering
//
// Run ids are UUIDv7 strings, so ordering by id is ordering by creation.
// Queries order explicitly:
//   - runs:        ORDER BY id COLLATE BINARY
//   - trace_rows:  ORDER BY month
//   - annual_rows: ORDER BY year
//
// Months are stored as "YYYY-MM-DD" text, which sorts chronologically.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: trace and annual rows cascade with their run
package store
