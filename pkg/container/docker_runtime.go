package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerRuntime implements Runtime using the Docker Engine API.
type DockerRuntime struct {
	client     *client.Client
	imageCache map[string]bool
}

// NewDockerRuntime constructs a runtime bound to the local Docker daemon
// (via the standard DOCKER_HOST / environment conventions) and verifies
// it is reachable before returning.
func NewDockerRuntime() (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
	}

	return &DockerRuntime{
		client:     cli,
		imageCache: make(map[string]bool),
	}, nil
}

// CreateNetwork creates the shared orchestrator network, or returns the id
// of one that already exists under the same name.
func (r *DockerRuntime) CreateNetwork(ctx context.Context, name string) (string, error) {
	existing, err := r.client.NetworkList(ctx, network.ListOptions{})
	if err == nil {
		for _, n := range existing {
			if n.Name == name {
				return n.ID, nil
			}
		}
	}

	resp, err := r.client.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkCreateFailed, err)
	}
	return resp.ID, nil
}

// RemoveNetwork removes the shared network. A missing network is not an error.
func (r *DockerRuntime) RemoveNetwork(ctx context.Context, name string) error {
	if err := r.client.NetworkRemove(ctx, name); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrNetworkCreateFailed, err)
	}
	return nil
}

// PullIfMissing pulls imageRef only when it is not already present locally.
func (r *DockerRuntime) PullIfMissing(ctx context.Context, imageRef string) error {
	if r.imageCache[imageRef] {
		return nil
	}

	if _, err := r.client.ImageInspect(ctx, imageRef); err == nil {
		r.imageCache[imageRef] = true
		return nil
	}

	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	reader, err := r.client.ImagePull(pullCtx, imageRef, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}
	defer reader.Close()

	io.Copy(io.Discard, reader)

	r.imageCache[imageRef] = true
	return nil
}

// CreateContainer creates a worker container per spec: Binds use
// "host_path:/mnt/workspace:rw", the container joins the shared network,
// and the given port set is exposed.
func (r *DockerRuntime) CreateContainer(ctx context.Context, spec ContainerSpec) (string, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	cfg := &container.Config{
		Image: spec.Image,
		Cmd:   spec.CmdArgs,
		Env:   env,
	}

	hostCfg := &container.HostConfig{
		Binds:      spec.Binds,
		AutoRemove: false,
		Resources: container.Resources{
			Memory:   spec.MemoryLimit,
			NanoCPUs: int64(spec.CPUShares * 1e9),
		},
	}

	var netCfg *network.NetworkingConfig
	if spec.Network != "" {
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Network: {},
			},
		}
	}

	resp, err := r.client.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, "")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrContainerCreateFailed, err)
	}

	return resp.ID, nil
}

// StartContainer starts a previously created container.
func (r *DockerRuntime) StartContainer(ctx context.Context, id string) error {
	if err := r.client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrContainerStartFailed, err)
	}
	return nil
}

// StopContainer sends a graceful stop; the engine force-kills the process
// if it has not exited within timeout seconds.
func (r *DockerRuntime) StopContainer(ctx context.Context, id string, timeout int) error {
	t := timeout
	if err := r.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &t}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

// RemoveContainer removes a container.
func (r *DockerRuntime) RemoveContainer(ctx context.Context, id string, force bool) error {
	err := r.client.ContainerRemove(ctx, id, container.RemoveOptions{
		Force:         force,
		RemoveVolumes: true,
	})
	if err != nil && client.IsErrNotFound(err) {
		return nil
	}
	return err
}

// InspectContainer returns running state and the container's IP on each
// attached network, for endpoint derivation.
func (r *DockerRuntime) InspectContainer(ctx context.Context, id string) (*InspectResult, error) {
	info, err := r.client.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, ErrContainerNotFound
		}
		return nil, err
	}

	result := &InspectResult{
		NetworkEndpoints: make(map[string]string),
	}
	if info.State != nil {
		result.State.Running = info.State.Running
		result.State.ExitCode = info.State.ExitCode
	}
	if info.NetworkSettings != nil {
		for netName, ep := range info.NetworkSettings.Networks {
			result.NetworkEndpoints[netName] = ep.IPAddress
		}
	}

	return result, nil
}

// ContainerLogs returns the last tailBytes of combined stdout/stderr.
// Docker's API tails by line count, not bytes, so tailBytes is converted
// to a generous line estimate and the result is truncated to size.
func (r *DockerRuntime) ContainerLogs(ctx context.Context, id string, tailBytes int) (string, error) {
	lines := tailBytes / 40
	if lines < 20 {
		lines = 20
	}

	logs, err := r.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(lines),
	})
	if err != nil {
		return "", err
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	stdcopy.StdCopy(&stdout, &stderr, logs)

	combined := stdout.String() + stderr.String()
	if len(combined) > tailBytes {
		combined = combined[len(combined)-tailBytes:]
	}
	return combined, nil
}

// Close releases the underlying Docker API client connection.
func (r *DockerRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping verifies the Docker daemon is reachable.
func (r *DockerRuntime) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnreachable, err)
	}
	return nil
}
