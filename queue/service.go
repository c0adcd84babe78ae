package queue

import (
	"fmt"
	"os"

	"github.com/microscaling/freshcheck/utils"
)

// NewService connects to the queue named by queueType. There's no queue for QueueNone,
// in which case both return values are nil.
func NewService(queueType string) (Service, error) {
	switch queueType {
	case utils.QueueNone, "":
		log.Info("No update queue configured")
		return nil, nil

	case utils.QueueNats:
		qs, err := NewNatsService(os.Getenv("NATS_BASE_URL"), utils.GetEnvOrDefault("NATS_UPDATE_QUEUE_NAME", "freshcheck-updates"))
		if err != nil {
			return nil, err
		}
		return qs, nil

	case utils.QueueSqs:
		queueURL := os.Getenv("SQS_UPDATE_QUEUE_URL")
		if queueURL == "" {
			return nil, fmt.Errorf("SQS_UPDATE_QUEUE_URL must be set for an SQS queue")
		}
		qs, err := NewSqsService(queueURL)
		if err != nil {
			return nil, err
		}
		return qs, nil
	}

	return nil, fmt.Errorf("unknown queue type %q", queueType)
}
