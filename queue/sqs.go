package queue

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
)

const constLongPollSeconds = 5

// SqsService for sending and receiving update messages on SQS
type SqsService struct {
	svc      sqsiface.SQSAPI
	queueURL string
}

// make sure it satisfies the interface
var _ Service = (*SqsService)(nil)

// NewSqsService opens a new session with SQS
func NewSqsService(queueURL string) (*SqsService, error) {
	sess, err := session.NewSession()
	if err != nil {
		log.Errorf("Unable to create AWS session: %v", err)
		return nil, err
	}

	q := newSqsService(sqs.New(sess), queueURL)

	// Enable long polling on the queue so the notifier isn't spinning
	_, err = q.svc.SetQueueAttributes(&sqs.SetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		Attributes: aws.StringMap(map[string]string{
			"ReceiveMessageWaitTimeSeconds": strconv.Itoa(constLongPollSeconds),
		}),
	})
	if err != nil {
		log.Errorf("Unable to update queue at %s: %v", queueURL, err)
	}

	return q, nil
}

func newSqsService(svc sqsiface.SQSAPI, queueURL string) *SqsService {
	return &SqsService{
		svc:      svc,
		queueURL: queueURL,
	}
}

// SendUpdate to the SQS queue for the notifier.
func (q *SqsService) SendUpdate(msg UpdateMessage) error {
	log.Debugf("Sending update for %s to queue", msg.ContainerName)

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error: %v", err)
		return err
	}

	_, err = q.svc.SendMessage(&sqs.SendMessageInput{
		MessageBody: aws.String(string(bytes)),
		QueueUrl:    aws.String(q.queueURL),
	})
	if err != nil {
		log.Errorf("SQS send error for %s: %v", msg.ContainerName, err)
		return err
	}

	log.Infof("Sent update for container %s to queue", msg.ContainerName)
	return nil
}

// ReceiveUpdate from the SQS queue. Returns nil if there's nothing waiting.
func (q *SqsService) ReceiveUpdate() *UpdateMessage {
	log.Debugf("Receiving on queue %s", q.queueURL)

	resp, err := q.svc.ReceiveMessage(&sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: aws.Int64(1),
		WaitTimeSeconds:     aws.Int64(constLongPollSeconds),
	})
	if err != nil {
		log.Errorf("SQS receive error: %v", err)
		return nil
	}

	if len(resp.Messages) == 0 || resp.Messages[0].Body == nil {
		return nil
	}

	m := resp.Messages[0]
	var msg UpdateMessage
	err = json.Unmarshal([]byte(*m.Body), &msg)
	if err != nil {
		log.Errorf("Error unmarshaling update message, error is %v", err)
		return nil
	}

	log.Infof("Received update for container %s from queue.", msg.ContainerName)
	msg.ReceiptHandle = m.ReceiptHandle
	return &msg
}

// DeleteUpdate from the queue once it has been handled.
func (q *SqsService) DeleteUpdate(msg *UpdateMessage) error {
	if msg.ReceiptHandle == nil {
		return errors.New("no receipt handle")
	}

	_, err := q.svc.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Errorf("Error deleting SQS message: %v", err)
		return err
	}

	log.Infof("Deleted update for container %s from queue.", msg.ContainerName)
	return nil
}
