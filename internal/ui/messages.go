// Package ui provides TUI view messages shared between components.
package ui

import (
	"github.com/aayushdutt/mcinstall/internal/install"
)

type (
	// ProgressUpdate is sent for each pipeline notification
	ProgressUpdate struct {
		Progress install.Progress
	}

	// InstallDone is sent once when the task reaches a terminal state
	InstallDone struct {
		Result *install.Result
		Error  error
	}

	// taskStarted reports the outcome of Task.Start
	taskStarted struct {
		Error error
	}
)
