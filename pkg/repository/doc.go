// Package repository provides the data access layer for the Qualtrics data
// processor.
//
// It defines the Repository interface and implements it on PostgreSQL through
// database/sql with the pgx stdlib driver. The repository handles:
//   - Survey lookups and field mapping updates
//   - Response replacement (delete + insert) per survey
//   - Extraction log writes and duplicate-download hash checks
//   - Status queries for the REST API
//
// All operations take a context for cancellation and use the shared
// connection pool configured from DB_POOL_MIN_CONN/DB_POOL_MAX_CONN.
package repository
