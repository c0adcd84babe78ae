package api

import (
	"context"

	"github.com/microscaling/freshcheck/inspector"
	"github.com/microscaling/freshcheck/logstream"
)

// Checker runs an update check across all containers
type Checker interface {
	CheckAll(ctx context.Context) (inspector.Report, error)
}

// Subscriber hands out progress streams
type Subscriber interface {
	Subscribe() (<-chan logstream.Entry, func())
}

// make sure they satisfy the interfaces
var _ Checker = (*inspector.Checker)(nil)
var _ Subscriber = (*logstream.Broadcaster)(nil)

// CheckResponse is returned from the check-updates API
type CheckResponse struct {
	Success              bool              `json:"success"`
	Containers           []ContainerStatus `json:"containers"`
	TotalContainers      int               `json:"totalContainers"`
	ContainersWithUpdate int               `json:"containersWithUpdate"`
}

// ContainerStatus is the update status of one container. Digests are null if we don't know them.
type ContainerStatus struct {
	ContainerID     string  `json:"containerId"`
	ContainerName   string  `json:"containerName"`
	Image           string  `json:"image"`
	IsRunning       bool    `json:"isRunning"`
	HasUpdate       bool    `json:"hasUpdate"`
	DaysSinceUpdate int     `json:"daysSinceUpdate"`
	LocalDigest     *string `json:"localDigest"`
	RemoteDigest    *string `json:"remoteDigest"`
	LatestDigest    *string `json:"latestDigest"`
	HasRemoteDigest bool    `json:"hasRemoteDigest"`
	Rationale       string  `json:"rationale"`
	ImageSize       string  `json:"imageSize,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ErrorResponse is returned when the check couldn't run at all
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
