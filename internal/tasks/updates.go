package tasks

import (
	"fmt"

	"github.com/desertthunder/ytaudio/internal/models"
)

// ProgressUpdate is a job lifecycle event.
//
// Used to send real-time updates to the CLI or UI layer for display. There is
// no byte-level progress; updates mark transitions only.
type ProgressUpdate struct {
	Phase   Phase  // Lifecycle phase
	JobID   string // Job the update belongs to, empty before the job exists
	Message string // Human-readable message for display
	Err     error  // Set for [JobFailed]
}

// Job phase enumeration
type Phase int

const (
	Resolving Phase = iota
	Spawning
	Running
	JobCompleted
	JobFailed
)

func (p Phase) String() string {
	switch p {
	case Resolving:
		return "resolving"
	case Spawning:
		return "spawning"
	case Running:
		return "running"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	default:
		return ""
	}
}

func startingUpdate(req JobRequest) ProgressUpdate {
	if req.Mode == models.ModeStream {
		return ProgressUpdate{Phase: Resolving, Message: fmt.Sprintf("Resolving media url for %s...", req.URL)}
	}
	return ProgressUpdate{Phase: Spawning, Message: fmt.Sprintf("Starting download of %s...", req.URL)}
}

func runningUpdate(job *Job) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Running,
		JobID:   job.ID,
		Message: fmt.Sprintf("%s running (pid %d) -> %s", job.Request.Mode, job.pid, job.Request.Output),
	}
}

func finishedUpdate(job *Job, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   JobFailed,
			JobID:   job.ID,
			Message: fmt.Sprintf("%s failed: %v", job.Request.Mode, err),
			Err:     err,
		}
	}
	return ProgressUpdate{
		Phase:   JobCompleted,
		JobID:   job.ID,
		Message: fmt.Sprintf("Saved %s", job.Request.Output),
	}
}

func failedToStartUpdate(req JobRequest, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   JobFailed,
		Message: fmt.Sprintf("%s of %s failed to start: %v", req.Mode, req.URL, err),
		Err:     err,
	}
}
