package container

import "errors"

var (
	// ErrEngineUnreachable is returned when the container engine cannot be contacted.
	ErrEngineUnreachable = errors.New("container engine unreachable")

	// ErrImageNotFound is returned when the registry rejects a pull for the requested tag.
	ErrImageNotFound = errors.New("image not found")

	// ErrContainerNotFound is returned when an operation references an unknown container id.
	ErrContainerNotFound = errors.New("container not found")

	// ErrContainerCreateFailed is returned when engine-side container creation fails.
	ErrContainerCreateFailed = errors.New("container create failed")

	// ErrContainerStartFailed is returned when engine-side container start fails.
	ErrContainerStartFailed = errors.New("container start failed")

	// ErrNetworkCreateFailed is returned when the shared orchestrator network cannot be created.
	ErrNetworkCreateFailed = errors.New("network create failed")
)
