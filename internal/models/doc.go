// Package models defines the domain entities of the ytaudio content provider.
//
// The package contains two categories of types:
//
// 1. Search results: immutable values produced by the result parser
//   - [TrackRecord] : one search result with canonical watch URL, thumbnails and duration
//   - [QueryResult] : the ordered results of one query
//
// 2. History entities: database-backed records kept by the repositories
//   - [SearchRecord] : a query that was run and the results it returned
//   - [DownloadRecord] : a download or stream job and its outcome
//
// History entities implement [Model]; [Repository] is the data access contract.
package models
