package worker

import "errors"

var (
	// ErrBadRequest is returned when a request body or path fails validation,
	// including a path that resolves outside the workspace.
	ErrBadRequest = errors.New("bad request")

	// ErrPathOutsideWorkspace is a specific BadRequest: the translated path
	// escapes the workspace root.
	ErrPathOutsideWorkspace = errors.New("path resolves outside workspace")
)
