// Package store provides SQLite persistence for pipeline run history.
//
// It handles storage and retrieval of:
//   - One record per pipeline run (success or failure)
//   - The latest published URL per video id, backing the republish cache
//   - Aggregate counters consumed by the metrics collector
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package store
