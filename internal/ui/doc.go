// Package ui implements an interactive result picker using bubbletea's Elm architecture.
//
// The TUI runs one search and walks through three views:
//  1. [ResultListView] : Browse the tracks returned for the query
//  2. [JobView] : Spinner while the selected track downloads or streams
//  3. [ResultView] : Output path on success, the error otherwise
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Jobs are started through a [tasks.Supervisor], so they share its concurrency limit and history recording.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, s, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
