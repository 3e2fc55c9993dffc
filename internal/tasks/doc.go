// Package tasks runs download and stream jobs on behalf of the CLI, TUI and HTTP API.
//
// # Supervisor
//
// [Supervisor.Start] validates a [JobRequest], takes one of a fixed number of
// slots, asks the [Spawner] (a services.Provider) to start the process and
// returns a [Job] as soon as it runs. A goroutine then drains the process
// output into debug log lines, waits for exit, records the outcome through the
// optional [JobRecorder] and frees the slot.
//
// Start never queues: when every slot is busy it fails with shared.ErrJobLimit.
// Nothing is retried.
//
// # Batches
//
// [Supervisor.Batch] feeds many requests through a small worker pool, pacing
// job starts with a rate limiter, and can write a JSON manifest of the outcome.
//
// # Progress Reporting
//
// Lifecycle transitions are sent as [ProgressUpdate] values on an optional
// channel. Sends use select with default so a slow reader never blocks a job.
package tasks
