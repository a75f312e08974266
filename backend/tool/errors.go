package tool

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned by Registry.Lookup and Registry.Invoke when no
// tool is registered under the requested name.
var ErrToolNotFound = errors.New("tool not found")

// ValidationError reports a malformed tool argument. It is surfaced as a
// per-tool error and never aborts sibling invocations in the same turn.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// NotFoundError reports that a referenced task does not exist. The message is
// safe to show to the user verbatim.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Task with ID %s not found. Would you like to see your task list?", e.TaskID)
}
