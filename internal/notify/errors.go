package notify

import "errors"

var (
	// ErrSelect aborts a whole run: the due set could not be read.
	ErrSelect = errors.New("failed to select due reminders")
	// ErrLogWrite marks an item whose notification log entry could not be written.
	ErrLogWrite = errors.New("failed to write notification log")
)
