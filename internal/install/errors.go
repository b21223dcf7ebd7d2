package install

import "errors"

var (
	// ErrJobInProgress is returned when a target already has a download or install running
	ErrJobInProgress = errors.New("an update is already in progress for this target")
	// ErrNoUpdate is returned when starting a job without a newer release
	ErrNoUpdate = errors.New("no update available")
	// ErrDeclined is returned when the user refuses to update a running client
	ErrDeclined = errors.New("update declined")
)
