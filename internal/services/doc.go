// Package services defines the [Provider] interface a host uses to search a
// content source and acquire audio from it, and implements it for YouTube.
//
// # Pipeline
//
// A search is four steps: [Provider.BuildRequest], the HTTP round trip,
// extraction of the item list from the page, and parsing into a
// [models.QueryResult]. [YouTubeService.Search] runs all four; hosts with
// their own transport can call the request builder and response parser
// directly.
//
// Acquisition is either [Provider.Download], which spawns a full audio
// download, or [Provider.Stream], which resolves a direct media URL (blocking)
// and then spawns a transcode. Both return as soon as the process has started.
//
// # Error Handling
//
// Every error leaving a provider is an [*Error] naming the [Stage] that failed:
//   - [StageRequest] : building or sending the request, or a non-2xx status ([shared.ErrAPIRequest])
//   - [StageExtract] : the item list boundaries were not found or did not decode
//   - [StageParse] : a track element was missing a field or had a malformed value
//   - [StageResolve] : the resolution tool failed or printed no media URL
//   - [StageSpawn] : the download or transcode program could not be started
//
// The component error (extract.Error, parser.Error, resolver.Error,
// process.Error) stays reachable with errors.As, and its kind with errors.Is.
package services
