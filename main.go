package main

import (
	"context"
	"os"
	"time"

	"github.com/op/go-logging"

	"github.com/microscaling/freshcheck/api"
	"github.com/microscaling/freshcheck/docker"
	"github.com/microscaling/freshcheck/hub"
	"github.com/microscaling/freshcheck/inspector"
	"github.com/microscaling/freshcheck/logstream"
	"github.com/microscaling/freshcheck/queue"
	"github.com/microscaling/freshcheck/utils"
)

var log = logging.MustGetLogger("freshcheck")

func init() {
	utils.InitLogging()
}

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Errorf("Bad configuration: %v", err)
		os.Exit(1)
	}

	ds, err := docker.NewService(cfg.DockerHost, cfg.DockerTimeout)
	if err != nil {
		log.Errorf("Can't connect to Docker: %v", err)
		os.Exit(1)
	}
	defer ds.Close()

	qs, err := queue.NewService(cfg.QueueType)
	if err != nil {
		log.Errorf("Can't connect to the update queue: %v", err)
		os.Exit(1)
	}

	hs := hub.NewService(cfg.HubURL, cfg.HubTimeout, cfg.HubRateLimitDelay)
	broadcaster := logstream.NewBroadcaster()
	checker := inspector.NewChecker(ds, hs, qs, broadcaster, cfg.CheckWorkers)

	if cfg.CheckInterval > 0 {
		go startPoller(context.Background(), checker, cfg.CheckInterval)
	}

	log.Info("starting freshcheck")
	err = api.StartServer(cfg, checker, broadcaster)
	log.Errorf("Server stopped: %v", err)
	os.Exit(1)
}

// startPoller runs a check every interval until the context is done
func startPoller(ctx context.Context, checker api.Checker, interval time.Duration) {
	log.Infof("Checking for updates every %v", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := checker.CheckAll(ctx)
			if err != nil {
				log.Errorf("Scheduled check failed: %v", err)
				continue
			}
			log.Infof("Scheduled check: %d of %d containers need updating", report.ContainersWithUpdate, report.TotalContainers)
		}
	}
}
