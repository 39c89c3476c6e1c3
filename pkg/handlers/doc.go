// Package handlers provides the HTTP API of the data processor.
//
// The API includes endpoints for:
//   - Health checks backed by a database ping
//   - Triggering responses and definitions extraction from Qualtrics
//   - Transforming downloaded files and loading them into PostgreSQL
//   - Running the full extract + transform-and-load pipeline
//   - Reporting survey totals and recent extraction activity
//
// Every response uses a JSON envelope carrying a success flag, a UTC
// timestamp and either a data payload or an error message.
package handlers
