package workspace

import "errors"

var (
	// ErrLanguageNotFound is returned when a language ID is not in the registry
	ErrLanguageNotFound = errors.New("language not found")

	// ErrLanguageAlreadyExists is returned when registering a duplicate language
	ErrLanguageAlreadyExists = errors.New("language already exists")

	// ErrNoImageAvailable is returned when no image tag can be resolved for a language
	ErrNoImageAvailable = errors.New("no image available for language")

	// ErrInvalidVersionExpression is returned when a version manifest value cannot be parsed
	ErrInvalidVersionExpression = errors.New("invalid version expression")

	// ErrWorkspaceNotFound is returned when the workspace root does not exist
	ErrWorkspaceNotFound = errors.New("workspace root not found")
)
