package api

import (
	"encoding/json"
	"net/http"

	"code.cloudfoundry.org/bytefmt"

	"github.com/microscaling/freshcheck/inspector"
)

func handleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	log.Debugf("Check requested from %s", r.RemoteAddr)

	report, err := checker.CheckAll(r.Context())
	if err != nil {
		log.Errorf("Check failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, newCheckResponse(report))
}

func newCheckResponse(report inspector.Report) CheckResponse {
	resp := CheckResponse{
		Success:              true,
		Containers:           make([]ContainerStatus, 0, len(report.Containers)),
		TotalContainers:      report.TotalContainers,
		ContainersWithUpdate: report.ContainersWithUpdate,
	}

	for _, c := range report.Containers {
		resp.Containers = append(resp.Containers, newContainerStatus(c))
	}

	return resp
}

func newContainerStatus(c inspector.ContainerResult) ContainerStatus {
	cs := ContainerStatus{
		ContainerID:     c.Container.ID,
		ContainerName:   c.Container.Name,
		Image:           c.ConfiguredImage,
		IsRunning:       c.Container.Running,
		HasUpdate:       c.Verdict.HasUpdate,
		DaysSinceUpdate: c.Verdict.DaysSinceUpdate,
		LocalDigest:     optional(c.Local.Digest),
		HasRemoteDigest: c.Remote.DigestAvailable,
		Rationale:       string(c.Verdict.Rationale),
	}

	if c.Remote.DigestAvailable {
		cs.RemoteDigest = optional(c.Remote.Digest)
		cs.LatestDigest = optional(c.Remote.RawDigest)
	}

	if c.Local.Size > 0 {
		cs.ImageSize = bytefmt.ByteSize(uint64(c.Local.Size))
	}

	if c.Err != nil {
		cs.Error = c.Err.Error()
	}

	return cs
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Error marshalling response: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
}
