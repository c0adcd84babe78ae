package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/microscaling/freshcheck/logstream"
)

const constConnectedMessage = "connected to log stream"

// handleLogs streams progress lines as server-sent events until the client goes away
func handleLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Errorf("Response writer doesn't support streaming")
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	entries, unsubscribe := broadcaster.Subscribe()
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := writeEvent(w, logstream.Entry{Message: constConnectedMessage, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Debugf("Log stream client gone: %v", err)
		return
	}
	flusher.Flush()

	log.Debugf("Log stream client %s connected", r.RemoteAddr)
	for {
		select {
		case <-r.Context().Done():
			log.Debugf("Log stream client %s disconnected", r.RemoteAddr)
			return

		case e, ok := <-entries:
			if !ok {
				return
			}

			if err = writeEvent(w, e); err != nil {
				log.Debugf("Log stream client gone: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e logstream.Entry) error {
	bytes, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", bytes)
	return err
}
