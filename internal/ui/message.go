package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgResultsFetched MsgKind = iota
	MsgJobStarted
	MsgJobFinished
)

type resultsFetched struct {
	result models.QueryResult
	err    error
}

type jobStarted struct {
	job *tasks.Job
	err error
}

type jobFinished struct {
	job *tasks.Job
	err error
}

// resultsFetchedMsg is the constructor for [MsgResultsFetched]
func resultsFetchedMsg(result models.QueryResult, err error) Msg {
	return Msg{kind: MsgResultsFetched, data: resultsFetched{result, err}}
}

// jobStartedMsg is the constructor for [MsgJobStarted]
func jobStartedMsg(job *tasks.Job, err error) Msg {
	return Msg{kind: MsgJobStarted, data: jobStarted{job, err}}
}

// jobFinishedMsg is the constructor for [MsgJobFinished]
func jobFinishedMsg(job *tasks.Job, err error) Msg {
	return Msg{kind: MsgJobFinished, data: jobFinished{job, err}}
}

// Kind returns the message type.
func (m Msg) Kind() MsgKind { return m.kind }
