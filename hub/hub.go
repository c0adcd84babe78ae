package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	logging "github.com/op/go-logging"

	"github.com/microscaling/freshcheck/utils"
)

const (
	constHubURL               = "https://registry.hub.docker.com"
	constDefaultTimeout       = 10 * time.Second
	constDefaultRateLimitWait = 10 * time.Second
)

var log = logging.MustGetLogger("fchub")

// ErrRegistryUnreachable covers network errors, non-2xx responses and bodies we can't decode
var ErrRegistryUnreachable = errors.New("registry unreachable")

// RemoteImage is what the hub tells us about the latest image pushed for a tag
type RemoteImage struct {
	Digest               string // repository@digest, only set if DigestAvailable
	RawDigest            string // algorithm:hex as the hub returned it
	LastUpdated          time.Time
	DigestAvailable      bool
	LastUpdatedAvailable bool
}

// tagResponse is returned from the hub's v2/repositories/{repo}/tags/{tag} API
type tagResponse struct {
	Name        string     `json:"name"`
	Digest      string     `json:"digest"`
	LastUpdated string     `json:"last_updated"`
	Images      []tagImage `json:"images"`
}

// tagImage is one platform variant of a tag
type tagImage struct {
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Digest       string `json:"digest"`
	LastUpdated  string `json:"last_updated"`
}

// InfoService connects to the Docker Hub over the internet
type InfoService struct {
	client  *http.Client
	baseURL string

	rl             sync.RWMutex
	rateLimited    bool
	rateLimitDelay time.Duration
}

// NewService is a real info service
func NewService(baseURL string, timeout time.Duration, rateLimitDelay time.Duration) *InfoService {
	if baseURL == "" {
		baseURL = constHubURL
	}

	if timeout <= 0 {
		timeout = constDefaultTimeout
	}

	return &InfoService{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:        baseURL,
		rateLimitDelay: rateLimitDelay,
	}
}

// NewMockService is for testing
func NewMockService(transport *http.Transport) *InfoService {
	return &InfoService{
		client: &http.Client{
			Transport: transport,
			Timeout:   constDefaultTimeout,
		},
		baseURL:        "http://fakehub",
		rateLimitDelay: constDefaultRateLimitWait,
	}
}

// TagInfo gets the latest digest and update time the hub has for this repository and tag
func (hub *InfoService) TagInfo(ctx context.Context, ref utils.ImageReference) (remote RemoteImage, err error) {
	if hub.getRateLimited() {
		return remote, fmt.Errorf("%w: rate limited by %s", ErrRegistryUnreachable, hub.baseURL)
	}

	tagURL := fmt.Sprintf("%s/v2/repositories/%s/tags/%s", hub.baseURL, ref.Repository, ref.Tag)
	log.Debugf("Getting tag info from %s", tagURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tagURL, nil)
	if err != nil {
		log.Errorf("Failed to build API GET request err %v", err)
		return remote, fmt.Errorf("%w: %w", ErrRegistryUnreachable, err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := hub.client.Do(req)
	if err != nil {
		log.Errorf("Error getting tag info from %s: %v", tagURL, err)
		return remote, fmt.Errorf("%w: %w", ErrRegistryUnreachable, err)
	}

	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		log.Info("Rate limited")
		hub.setRateLimited()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Infof("Failed to get tag info for %s %d: %s", ref, resp.StatusCode, resp.Status)
		return remote, fmt.Errorf("%w: %s", ErrRegistryUnreachable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Error reading tag info for %s - %v", ref, err)
		return remote, fmt.Errorf("%w: %w", ErrRegistryUnreachable, err)
	}

	var tr tagResponse
	err = json.Unmarshal(body, &tr)
	if err != nil {
		log.Errorf("Error unmarshalling tag info for %s - %v", ref, err)
		return remote, fmt.Errorf("%w: %w", ErrRegistryUnreachable, err)
	}

	remote = tr.remoteImage(ref.Repository)
	log.Debugf("Got tag info for %s: %+v", ref, remote)
	return remote, nil
}

// remoteImage picks the digest and update time out of the response. The top level fields
// win; the per-platform images are only looked at when they are missing.
func (tr tagResponse) remoteImage(repository string) (remote RemoteImage) {
	digest := tr.Digest
	if digest == "" {
		for _, img := range tr.Images {
			if img.Digest != "" {
				digest = img.Digest
				break
			}
		}
	}

	if digest != "" {
		remote.RawDigest = digest
		remote.Digest = repository + "@" + digest
		remote.DigestAvailable = true
	}

	if t, ok := parseTime(tr.LastUpdated); ok {
		remote.LastUpdated = t
		remote.LastUpdatedAvailable = true
		return remote
	}

	// Any one of several images with the same time will do, we only want the most recent time
	for _, img := range tr.Images {
		t, ok := parseTime(img.LastUpdated)
		if ok && (!remote.LastUpdatedAvailable || t.After(remote.LastUpdated)) {
			remote.LastUpdated = t
			remote.LastUpdatedAvailable = true
		}
	}

	return remote
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		log.Debugf("Ignoring bad timestamp %s: %v", s, err)
		return time.Time{}, false
	}

	return t, true
}

func (hub *InfoService) getRateLimited() bool {
	hub.rl.RLock()
	defer hub.rl.RUnlock()

	return hub.rateLimited
}

func (hub *InfoService) setRateLimited() {
	hub.rl.Lock()
	defer hub.rl.Unlock()

	if hub.rateLimited || hub.rateLimitDelay <= 0 {
		return
	}

	log.Debug("Setting rate limiter")
	hub.rateLimited = true
	time.AfterFunc(hub.rateLimitDelay, func() {
		log.Debug("Unsetting rate limiter")
		hub.rl.Lock()
		hub.rateLimited = false
		hub.rl.Unlock()
	})
}
