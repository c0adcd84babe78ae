package inspector

import (
	"testing"
	"time"

	"github.com/microscaling/freshcheck/docker"
	"github.com/microscaling/freshcheck/hub"
)

func TestEvaluate(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(10 * 24 * time.Hour)

	type test struct {
		local     docker.LocalImage
		remote    hub.RemoteImage
		hasUpdate bool
		rationale Rationale
		days      int
	}

	tests := []test{
		// Same digest
		{
			local:     docker.LocalImage{Digest: "repo@sha256:AA", Created: created},
			remote:    hub.RemoteImage{Digest: "repo@sha256:AA", DigestAvailable: true, LastUpdated: created, LastUpdatedAvailable: true},
			hasUpdate: false,
			rationale: RationaleDigestMatch,
			days:      10,
		},
		// Different digest, even though the times say otherwise
		{
			local:     docker.LocalImage{Digest: "repo@sha256:AA", Created: created},
			remote:    hub.RemoteImage{Digest: "repo@sha256:BB", DigestAvailable: true, LastUpdated: created.Add(-48 * time.Hour), LastUpdatedAvailable: true},
			hasUpdate: true,
			rationale: RationaleDigestMismatch,
			days:      12,
		},
		// Digests compare with the repository prefix
		{
			local:     docker.LocalImage{Digest: "other@sha256:AA", Created: created},
			remote:    hub.RemoteImage{Digest: "repo@sha256:AA", DigestAvailable: true},
			hasUpdate: true,
			rationale: RationaleDigestMismatch,
		},
		// Local digest but no remote digest is never an update, whatever the times
		{
			local:     docker.LocalImage{Digest: "repo@sha256:AA", Created: created},
			remote:    hub.RemoteImage{LastUpdated: created.Add(30 * 24 * time.Hour), LastUpdatedAvailable: true},
			hasUpdate: false,
			rationale: RationaleRemoteDigestUnknown,
		},
		// No local digest, remote 30 minutes newer
		{
			local:     docker.LocalImage{Created: created},
			remote:    hub.RemoteImage{Digest: "repo@sha256:BB", DigestAvailable: true, LastUpdated: created.Add(30 * time.Minute), LastUpdatedAvailable: true},
			hasUpdate: false,
			rationale: RationaleTimeWithinThreshold,
			days:      9,
		},
		// No local digest, remote 2 hours newer
		{
			local:     docker.LocalImage{Created: created},
			remote:    hub.RemoteImage{LastUpdated: created.Add(2 * time.Hour), LastUpdatedAvailable: true},
			hasUpdate: true,
			rationale: RationaleTimeThresholdExceeded,
			days:      9,
		},
		// Exactly the tolerance isn't enough
		{
			local:     docker.LocalImage{Created: created},
			remote:    hub.RemoteImage{LastUpdated: created.Add(TimeSkewTolerance), LastUpdatedAvailable: true},
			hasUpdate: false,
			rationale: RationaleTimeWithinThreshold,
			days:      9,
		},
		// No local digest and no remote time
		{
			local:     docker.LocalImage{Created: created},
			remote:    hub.RemoteImage{},
			hasUpdate: false,
			rationale: RationaleTimeWithinThreshold,
		},
		// Remote time in the future
		{
			local:     docker.LocalImage{Created: created},
			remote:    hub.RemoteImage{LastUpdated: now.Add(72 * time.Hour), LastUpdatedAvailable: true},
			hasUpdate: true,
			rationale: RationaleTimeThresholdExceeded,
			days:      0,
		},
	}

	for id, tt := range tests {
		v := Evaluate(tt.local, tt.remote, now)
		if v.HasUpdate != tt.hasUpdate {
			t.Errorf("#%d Expected has update %t, got %t", id, tt.hasUpdate, v.HasUpdate)
		}

		if v.Rationale != tt.rationale {
			t.Errorf("#%d Expected rationale %s, got %s", id, tt.rationale, v.Rationale)
		}

		if v.DaysSinceUpdate != tt.days {
			t.Errorf("#%d Expected %d days since update, got %d", id, tt.days, v.DaysSinceUpdate)
		}

		if again := Evaluate(tt.local, tt.remote, now); again != v {
			t.Errorf("#%d Evaluating twice gave different verdicts %#v and %#v", id, v, again)
		}
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)

	type test struct {
		then time.Time
		days int
	}

	tests := []test{
		{then: now, days: 0},
		{then: now.Add(-23 * time.Hour), days: 0},
		{then: now.Add(-24 * time.Hour), days: 1},
		{then: now.Add(-49 * time.Hour), days: 2},
		{then: now.Add(time.Hour), days: 0},
	}

	for id, tt := range tests {
		if days := daysSince(tt.then, now); days != tt.days {
			t.Errorf("#%d Expected %d days, got %d", id, tt.days, days)
		}
	}
}

func TestDegraded(t *testing.T) {
	v := Degraded()
	if v.HasUpdate || v.Rationale != RationaleUnknown || v.DaysSinceUpdate != 0 {
		t.Errorf("Unexpected degraded verdict %#v", v)
	}
}
