// Package services implements the ContestLens business layer between the
// HTTP handlers and the core data processing.
//
// DataService owns the single active dataset. Ingest parses an upload,
// aggregates it and swaps it in; every other operation reads the active
// dataset and fails with ErrNoDataset before the first upload. Query
// parameters are validated with go-playground/validator and rejected as a
// *QueryError, which wraps ErrInvalidQuery.
//
// HealthService answers liveness, readiness and version probes.
package services
