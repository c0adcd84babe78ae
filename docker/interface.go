package docker

import (
	"context"
	"errors"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

var (
	// ErrRuntimeUnavailable means the Docker daemon couldn't be reached or gave an unexpected error
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")

	// ErrNotFound means the container or image is no longer there
	ErrNotFound = errors.New("not found")
)

// Container is a snapshot of a container taken when it is listed
type Container struct {
	ID      string
	Name    string
	Image   string
	State   string
	Running bool
}

// LocalImage is the metadata we need about the image a container was started from
type LocalImage struct {
	Digest  string // repository@algorithm:hex, empty if the image was never pulled or pushed
	Created time.Time
	Size    int64
}

// Runtime is what the inspector needs from the container runtime, so we can fake it out in tests
type Runtime interface {
	ListContainers(ctx context.Context) ([]Container, error)
	InspectContainer(ctx context.Context, id string) (configuredImage string, err error)
	InspectImage(ctx context.Context, ref string) (LocalImage, error)
}

// engineAPI is the part of the Docker Engine client we call
type engineAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ImageInspect(ctx context.Context, imageID string, inspectOpts ...client.ImageInspectOption) (image.InspectResponse, error)
	Close() error
}

// make sure they satisfy the interfaces
var _ Runtime = (*Service)(nil)
var _ engineAPI = (*client.Client)(nil)
