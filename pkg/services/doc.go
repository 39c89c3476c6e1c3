// Package services provides the core business logic for the Qualtrics data
// processor.
//
// It includes services for:
//   - Extraction: Exporting survey responses and fetching survey definitions
//     from the Qualtrics API
//   - Transformation: Turning definitions into field mappings and CSV exports
//     into response rows, with duplicate-download detection
//   - Loading: Persisting mappings and responses into PostgreSQL with
//     replace semantics and reporting-period derivation
//   - Orchestration: The AppService running the full pipeline and backing
//     the HTTP handlers
//
// All services support context-based cancellation for graceful shutdown.
package services
