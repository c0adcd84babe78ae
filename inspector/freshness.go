package inspector

import (
	"math"
	"time"

	"github.com/microscaling/freshcheck/docker"
	"github.com/microscaling/freshcheck/hub"
)

// TimeSkewTolerance is how much later than the local image the remote image can be
// before we say there's an update, when we have no digests to go on
const TimeSkewTolerance = time.Hour

// Rationale says which rule decided a verdict
type Rationale string

const (
	RationaleDigestMismatch        Rationale = "digest_mismatch"
	RationaleDigestMatch           Rationale = "digest_match"
	RationaleRemoteDigestUnknown   Rationale = "local_digest_remote_unknown"
	RationaleTimeThresholdExceeded Rationale = "time_threshold_exceeded"
	RationaleTimeWithinThreshold   Rationale = "time_within_threshold"

	// RationaleUnknown is used for containers we couldn't evaluate
	RationaleUnknown Rationale = "unknown"
)

// Verdict is whether a container's image is stale compared with the hub
type Verdict struct {
	HasUpdate       bool
	Rationale       Rationale
	DaysSinceUpdate int
}

// Evaluate compares local and remote metadata for an image. Digests win if we have both;
// a local digest with no remote digest is never reported as an update; otherwise we fall
// back to comparing the remote update time with the local creation time.
func Evaluate(local docker.LocalImage, remote hub.RemoteImage, now time.Time) (v Verdict) {
	switch {
	case local.Digest != "" && remote.DigestAvailable:
		v.HasUpdate = local.Digest != remote.Digest
		if v.HasUpdate {
			v.Rationale = RationaleDigestMismatch
		} else {
			v.Rationale = RationaleDigestMatch
		}

	case local.Digest != "":
		v.Rationale = RationaleRemoteDigestUnknown

	default:
		v.HasUpdate = remote.LastUpdatedAvailable && remote.LastUpdated.Sub(local.Created) > TimeSkewTolerance
		if v.HasUpdate {
			v.Rationale = RationaleTimeThresholdExceeded
		} else {
			v.Rationale = RationaleTimeWithinThreshold
		}
	}

	if remote.LastUpdatedAvailable {
		v.DaysSinceUpdate = daysSince(remote.LastUpdated, now)
	}

	return v
}

// daysSince is the number of whole days from then until now, never negative
func daysSince(then time.Time, now time.Time) int {
	d := now.Sub(then)
	if d <= 0 {
		return 0
	}

	return int(math.Floor(d.Hours() / 24))
}

// Degraded is the verdict for a container we couldn't evaluate
func Degraded() Verdict {
	return Verdict{Rationale: RationaleUnknown}
}
