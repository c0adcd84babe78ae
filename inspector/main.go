package inspector

import (
	"context"
	"fmt"
	"time"

	logging "github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	"github.com/microscaling/freshcheck/docker"
	"github.com/microscaling/freshcheck/hub"
	"github.com/microscaling/freshcheck/queue"
	"github.com/microscaling/freshcheck/utils"
)

var log = logging.MustGetLogger("fccheck")

// TagFetcher gets the latest metadata for a repository and tag from the registry
type TagFetcher interface {
	TagInfo(ctx context.Context, ref utils.ImageReference) (hub.RemoteImage, error)
}

// ProgressSink receives a human-readable line for every step of a check
type ProgressSink interface {
	Publish(message string)
}

// make sure the real services satisfy the interfaces
var _ TagFetcher = (*hub.InfoService)(nil)

// ContainerResult is everything we found out about one container
type ContainerResult struct {
	Container       docker.Container
	ConfiguredImage string
	Reference       utils.ImageReference
	Local           docker.LocalImage
	Remote          hub.RemoteImage
	Verdict         Verdict

	// Err is why the container couldn't be evaluated, nil if it was
	Err error
}

// Degraded is true if we couldn't evaluate this container
func (r ContainerResult) Degraded() bool {
	return r.Err != nil
}

// Report is the outcome of checking every container
type Report struct {
	Containers           []ContainerResult
	TotalContainers      int
	ContainersWithUpdate int
	CheckedAt            time.Time
}

// Checker runs update checks across all the containers on the runtime
type Checker struct {
	runtime  docker.Runtime
	hub      TagFetcher
	qs       queue.Service
	progress ProgressSink
	workers  int
	now      func() time.Time
}

// NewChecker needs a runtime and a registry. The queue and progress sink are optional.
func NewChecker(runtime docker.Runtime, fetcher TagFetcher, qs queue.Service, progress ProgressSink, workers int) *Checker {
	if workers < 1 {
		workers = 1
	}

	return &Checker{
		runtime:  runtime,
		hub:      fetcher,
		qs:       qs,
		progress: progress,
		workers:  workers,
		now:      time.Now,
	}
}

// CheckAll checks every container, running or not. Only failing to list the containers is an
// error; a container we can't evaluate still gets a result so the totals always add up.
func (c *Checker) CheckAll(ctx context.Context) (report Report, err error) {
	c.progressf("Starting container image update check...")

	containers, err := c.runtime.ListContainers(ctx)
	if err != nil {
		c.progressf("Check failed: %v", err)
		return report, err
	}

	c.progressf("Found %d containers", len(containers))

	report.CheckedAt = c.now()
	report.Containers = make([]ContainerResult, len(containers))

	// Each worker writes to its own slot so the report keeps the runtime's order
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, ctr := range containers {
		g.Go(func() error {
			report.Containers[i] = c.checkContainer(ctx, ctr, report.CheckedAt)
			return nil
		})
	}
	g.Wait()

	if err = ctx.Err(); err != nil {
		log.Infof("Check cancelled: %v", err)
		return report, err
	}

	report.TotalContainers = len(report.Containers)
	for _, r := range report.Containers {
		if r.Verdict.HasUpdate {
			report.ContainersWithUpdate++
			c.sendUpdate(r, report.CheckedAt)
		}
	}

	c.progressf("Check complete, %d containers need updating", report.ContainersWithUpdate)
	return report, nil
}

func (c *Checker) checkContainer(ctx context.Context, ctr docker.Container, now time.Time) (res ContainerResult) {
	res.Container = ctr
	res.ConfiguredImage = ctr.Image
	res.Verdict = Degraded()

	c.progressf("Checking container: %s", ctr.Name)

	img, err := c.runtime.InspectContainer(ctx, ctr.ID)
	if err != nil {
		c.progressf("  Couldn't inspect container %s: %v", ctr.Name, err)
		res.Err = err
		return res
	}

	res.ConfiguredImage = img
	c.progressf("  Container %s uses image: %s", ctr.Name, img)

	c.progressf("    Getting local image info: %s", img)
	local, err := c.runtime.InspectImage(ctx, img)
	if err != nil {
		c.progressf("    Couldn't get local image info for %s: %v", img, err)
		res.Err = err
		return res
	}

	res.Local = local
	c.progressf("    Local image created: %s", local.Created.UTC().Format(time.RFC3339))
	c.progressf("    Local image digest: %s", orNone(local.Digest, "none"))

	res.Reference = utils.ParseDockerImage(img)
	c.progressf("    Parsed - repository: %s, tag: %s", res.Reference.Repository, res.Reference.Tag)

	c.progressf("    Querying Docker Hub for %s", res.Reference)
	remote, err := c.hub.TagInfo(ctx, res.Reference)
	if err != nil {
		c.progressf("    Couldn't get remote image info: %v", err)
		res.Err = err
		return res
	}

	res.Remote = remote
	if remote.LastUpdatedAvailable {
		c.progressf("    Remote image updated: %s", remote.LastUpdated.UTC().Format(time.RFC3339))
	} else {
		c.progressf("    Remote image update time unavailable")
	}
	c.progressf("    Remote image digest: %s", orNone(remote.Digest, "cannot determine digest"))

	res.Verdict = Evaluate(local, remote, now)
	if res.Verdict.HasUpdate {
		c.progressf("  Container %s needs updating (%s), latest image updated %d days ago", ctr.Name, res.Verdict.Rationale, res.Verdict.DaysSinceUpdate)
	} else {
		c.progressf("  Container %s image is up to date (%s)", ctr.Name, res.Verdict.Rationale)
	}

	return res
}

func (c *Checker) sendUpdate(r ContainerResult, checkedAt time.Time) {
	if c.qs == nil {
		return
	}

	err := c.qs.SendUpdate(queue.UpdateMessage{
		ContainerID:     r.Container.ID,
		ContainerName:   r.Container.Name,
		Image:           r.ConfiguredImage,
		LocalDigest:     r.Local.Digest,
		RemoteDigest:    r.Remote.Digest,
		Rationale:       string(r.Verdict.Rationale),
		DaysSinceUpdate: r.Verdict.DaysSinceUpdate,
		CheckedAt:       checkedAt,
	})
	if err != nil {
		log.Errorf("Failed to queue update for %s: %v", r.Container.Name, err)
	}
}

func (c *Checker) progressf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Info(msg)

	if c.progress != nil {
		c.progress.Publish(msg)
	}
}

func orNone(s string, none string) string {
	if s == "" {
		return none
	}
	return s
}
