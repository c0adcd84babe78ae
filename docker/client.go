package docker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	logging "github.com/op/go-logging"

	"github.com/microscaling/freshcheck/utils"
)

const (
	constStateRunning   = "running"
	constShortIDLength  = 12
	constDefaultTimeout = 30 * time.Second
	constHubHostPrefix  = "docker.io/"
)

var log = logging.MustGetLogger("fcdocker")

// Service reads container and image metadata from the Docker daemon
type Service struct {
	api     engineAPI
	timeout time.Duration
}

// NewService connects to the Docker daemon. An empty host means use DOCKER_HOST or the default socket.
func NewService(host string, timeout time.Duration) (*Service, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	s := newService(cli, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err = cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	log.Debugf("Connected to Docker at %s", cli.DaemonHost())
	return s, nil
}

// NewMockService is for testing
func NewMockService(api engineAPI) *Service {
	return newService(api, constDefaultTimeout)
}

func newService(api engineAPI, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = constDefaultTimeout
	}

	return &Service{
		api:     api,
		timeout: timeout,
	}
}

// Close closes the connection to the daemon
func (s *Service) Close() error {
	if s.api != nil {
		return s.api.Close()
	}
	return nil
}

// ListContainers returns all containers, running and stopped, in the order the daemon lists them
func (s *Service) ListContainers(ctx context.Context) ([]Container, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		log.Errorf("Error listing containers: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	containers := make([]Container, 0, len(list))
	for _, c := range list {
		containers = append(containers, Container{
			ID:      c.ID,
			Name:    containerName(c),
			Image:   c.Image,
			State:   string(c.State),
			Running: string(c.State) == constStateRunning,
		})
	}

	log.Debugf("Listed %d containers", len(containers))
	return containers, nil
}

// InspectContainer returns the image the container was configured with, as the user wrote it
func (s *Service) InspectContainer(ctx context.Context, id string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.api.ContainerInspect(ctx, id)
	if err != nil {
		return "", classify("inspect container "+id, err)
	}

	if info.Config == nil || info.Config.Image == "" {
		return "", fmt.Errorf("inspect container %s: %w: no configured image", id, ErrNotFound)
	}

	return info.Config.Image, nil
}

// InspectImage gets the local digest and creation time for an image
func (s *Service) InspectImage(ctx context.Context, ref string) (local LocalImage, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	info, err := s.api.ImageInspect(ctx, ref)
	if err != nil {
		return local, classify("inspect image "+ref, err)
	}

	if len(info.RepoDigests) > 0 {
		local.Digest = normaliseDigest(info.RepoDigests[0])
	}

	if info.Created != "" {
		local.Created, err = time.Parse(time.RFC3339Nano, info.Created)
		if err != nil {
			log.Infof("Couldn't parse created time %s for image %s: %v", info.Created, ref, err)
			err = nil
		}
	}

	local.Size = info.Size
	return local, nil
}

// classify maps a Docker client error onto our error types
func classify(op string, err error) error {
	if errdefs.IsNotFound(err) {
		log.Debugf("%s: not found", op)
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}

	log.Errorf("Error during %s: %v", op, err)
	return fmt.Errorf("%s: %w: %w", op, ErrRuntimeUnavailable, err)
}

func containerName(c container.Summary) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}

	if len(c.ID) > constShortIDLength {
		return c.ID[:constShortIDLength]
	}
	return c.ID
}

// normaliseDigest writes the repository part of a repo digest the same way the reference
// parser does, so nginx@sha256:... compares equal to library/nginx@sha256:... from the hub.
func normaliseDigest(repoDigest string) string {
	i := strings.Index(repoDigest, "@")
	if i < 0 {
		return repoDigest
	}

	name := strings.TrimPrefix(repoDigest[:i], constHubHostPrefix)
	if !strings.Contains(name, "/") {
		name = utils.OfficialNamespace + "/" + name
	}

	return name + repoDigest[i:]
}
