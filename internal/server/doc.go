// Package server exposes the search and job pipeline as a small JSON API.
//
// # Routes
//
//	GET  /health       liveness
//	GET  /search?q=    run a query, optional limit
//	POST /jobs         start a download or stream job
//	GET  /jobs         recorded jobs, newest first
//	GET  /jobs/{id}    one job, with its pid while it runs
//
// Routing uses go-chi with RequestID, RealIP, Recoverer and Timeout middleware plus
// [RequestLogger], which logs through charmbracelet/log.
//
// # Errors
//
// Every error body is {"error": "..."}. Provider failures answer 502 and add the
// pipeline "stage" that failed. A full supervisor answers 429.
package server
