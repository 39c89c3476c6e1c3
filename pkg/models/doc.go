// Package models defines the core data structures used throughout the
// Qualtrics data processor.
//
// It includes:
//   - Survey: Surveys registered in the database, with their field mappings
//   - SurveyResponse: Transformed response rows destined for PostgreSQL
//   - ExtractionLog: Audit records of completed responses downloads
//   - Question/Choice: The subset of the Qualtrics survey definition the
//     mapping transform consumes
//   - Pipeline result types mirrored in the JSON API responses
//
// All models include appropriate serialization tags for database storage
// and JSON API responses.
package models
