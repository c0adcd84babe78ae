package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/op/go-logging"

	"github.com/microscaling/freshcheck/queue"
	"github.com/microscaling/freshcheck/utils"
)

var (
	log = logging.MustGetLogger("fcnotify")

	retryDelay = 2 * time.Second
)

const constPollQueueTimeout = 250 // milliseconds - how often to check the queue for messages.
const constNotificationRetries = 5
const constWebhookTimeout = 10 * time.Second

func init() {
	utils.InitLogging()
}

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Errorf("Bad configuration: %v", err)
		os.Exit(1)
	}

	if cfg.WebhookURL == "" {
		log.Error("FC_WEBHOOK_URL must be set")
		os.Exit(1)
	}

	qs, err := queue.NewService(cfg.QueueType)
	if err != nil || qs == nil {
		log.Errorf("The notifier needs a nats or sqs queue (FC_QUEUE_TYPE=%s): %v", cfg.QueueType, err)
		os.Exit(1)
	}

	log.Info("starting notifier")
	startNotifier(qs, cfg.WebhookURL)
}

// Polls the queue for updates that need to be sent.
func startNotifier(qs queue.Service, webhookURL string) {
	client := &http.Client{Timeout: constWebhookTimeout}

	pollQueueTimeout := time.NewTicker(constPollQueueTimeout * time.Millisecond)
	for range pollQueueTimeout.C {
		msg := qs.ReceiveUpdate()
		if msg != nil {
			handleMessage(qs, client, webhookURL, msg)
		}
	}
}

// handleMessage sends one update, then deletes it whether it got through or not
func handleMessage(qs queue.Service, client *http.Client, webhookURL string, msg *queue.UpdateMessage) (success bool) {
	log.Infof("Sending notification for container %s", msg.ContainerName)

	success, attempts, err := sendNotification(client, webhookURL, msg)
	if err != nil {
		log.Errorf("Error sending notification for %s: %v", msg.ContainerName, err)
	}

	log.Infof("Notification for %s stopping after %d attempts", msg.ContainerName, attempts)
	err = qs.DeleteUpdate(msg)
	if err != nil {
		log.Errorf("Failed to delete update for %s: %v", msg.ContainerName, err)
	}

	return success
}

// Sends a notification that a container's image has an update, retrying a few times.
func sendNotification(client *http.Client, webhookURL string, msg *queue.UpdateMessage) (success bool, attempts int, err error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return false, 0, err
	}

	for attempts < constNotificationRetries {
		if attempts > 0 {
			time.Sleep(retryDelay)
		}
		attempts++

		var statusCode int
		var resp []byte
		statusCode, resp, err = postMessage(client, webhookURL, body)
		if err != nil {
			log.Errorf("Error sending notification %v", err)
			continue
		}

		// If the webhook returns a response in the 200s its counted as a success.
		if statusCode >= 200 && statusCode <= 299 {
			return true, attempts, nil
		}

		log.Infof("Notification response %d for %s: %s", statusCode, msg.ContainerName, resp)
	}

	return false, attempts, err
}

// Post a message to a webhook.
func postMessage(client *http.Client, url string, request []byte) (status int, response []byte, err error) {
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(request))
	if err != nil {
		return status, response, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return status, response, err
	}
	defer resp.Body.Close()

	response, err = io.ReadAll(resp.Body)

	return resp.StatusCode, response, err
}
