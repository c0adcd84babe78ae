package queue

import (
	"encoding/json"
	"errors"
	"time"

	nats "github.com/nats-io/nats.go"
)

const constNatsReceiveTimeout = 30 * time.Second

// NatsService for sending and receiving update messages on Nats.
type NatsService struct {
	nc        *nats.Conn
	sub       *nats.Subscription
	queueName string
}

// make sure it satisfies the interface
var _ Service = (*NatsService)(nil)

// NewNatsService opens a new connection to Nats.
func NewNatsService(baseURL string, queueName string) (*NatsService, error) {
	if baseURL == "" {
		baseURL = nats.DefaultURL
	}

	nc, err := nats.Connect(baseURL)
	if err != nil {
		log.Errorf("Unable to connect to queue at %s: %v", baseURL, err)
		return nil, err
	}

	return &NatsService{
		nc:        nc,
		queueName: queueName,
	}, nil
}

// SendUpdate to the Nats queue for the notifier.
func (q *NatsService) SendUpdate(msg UpdateMessage) error {
	log.Debugf("Sending update for %s to queue", msg.ContainerName)

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error: %v", err)
		return err
	}

	err = q.nc.Publish(q.queueName, bytes)
	if err != nil {
		log.Errorf("Failed to send update for %s: %v", msg.ContainerName, err)
		return err
	}

	log.Infof("Sent update for container %s to queue", msg.ContainerName)
	return nil
}

// ReceiveUpdate from the Nats queue. Returns nil if nothing arrives before the timeout.
func (q *NatsService) ReceiveUpdate() *UpdateMessage {
	log.Debugf("Receiving on queue %s", q.queueName)

	data, err := q.natsReceive()
	if err != nil {
		log.Errorf("Error receiving update from queue: %v", err)
		return nil
	}

	if data == nil {
		return nil
	}

	var msg UpdateMessage
	err = json.Unmarshal(data, &msg)
	if err != nil {
		log.Errorf("Error unmarshaling update message, error is %v", err)
		return nil
	}

	log.Infof("Received update for container %s from queue.", msg.ContainerName)
	return &msg
}

// DeleteUpdate is a no-op, Nats messages are gone once they're delivered.
func (q *NatsService) DeleteUpdate(msg *UpdateMessage) error {
	log.Debugf("Deleting update for %s not needed for NATS.", msg.ContainerName)
	return nil
}

// Close drains the subscription and closes the connection
func (q *NatsService) Close() {
	if q.sub != nil {
		q.sub.Unsubscribe()
	}
	q.nc.Close()
}

func (q *NatsService) natsReceive() (message []byte, err error) {
	// Subscribe once, otherwise messages published between receives are lost
	if q.sub == nil {
		q.sub, err = q.nc.SubscribeSync(q.queueName)
		if err != nil {
			log.Errorf("NATS subscribe error: %v", err)
			return
		}
	}

	msg, err := q.sub.NextMsg(constNatsReceiveTimeout)
	if errors.Is(err, nats.ErrTimeout) {
		// Waiting for a message timed out. We return nil and will retry.
		return nil, nil
	} else if err != nil {
		log.Errorf("NATS next message error: %v", err)
		return
	}

	return msg.Data, nil
}
