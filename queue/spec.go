package queue

import (
	"time"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("fcqueue")

// UpdateMessage is sent to the queue when a check finds a container with a newer image on the hub
type UpdateMessage struct {
	ContainerID     string    `json:"ContainerID"`
	ContainerName   string    `json:"ContainerName"`
	Image           string    `json:"Image"`
	LocalDigest     string    `json:"LocalDigest,omitempty"`
	RemoteDigest    string    `json:"RemoteDigest,omitempty"`
	Rationale       string    `json:"Rationale"`
	DaysSinceUpdate int       `json:"DaysSinceUpdate"`
	CheckedAt       time.Time `json:"CheckedAt"`
	ReceiptHandle   *string   `json:"-"`
}

// Service interface so we can mock it out for tests
type Service interface {
	SendUpdate(msg UpdateMessage) error
	ReceiveUpdate() *UpdateMessage
	DeleteUpdate(msg *UpdateMessage) error
}
