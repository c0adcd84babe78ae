package utils

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestParseDockerImage(t *testing.T) {
	type test struct {
		input string
		repo  string
		tag   string
	}

	tests := []test{
		{input: "nginx", repo: "library/nginx", tag: "latest"},
		{input: "nginx:1.25", repo: "library/nginx", tag: "1.25"},
		{input: "nginx:latest", repo: "library/nginx", tag: "latest"},
		{input: "myrepo/app", repo: "myrepo/app", tag: "latest"},
		{input: "myrepo/app:v1.2.3", repo: "myrepo/app", tag: "v1.2.3"},
		{input: "registry.example.com:5000/team/app:v2", repo: "registry.example.com:5000/team/app", tag: "v2"},
		{input: "registry.example.com/team/app:v2", repo: "registry.example.com/team/app", tag: "v2"},
		{input: "registry.example.com/team/app", repo: "registry.example.com/team/app", tag: "latest"},
		// No dot in the host, so the first colon is taken and the tag needs repairing
		{input: "localhost:5000/app:v1", repo: "localhost:5000/app:v1", tag: "latest"},
		// Host and port with no tag at all picks the port colon, leaving a slash in the tag
		{input: "registry.example.com:5000/team/app", repo: "registry.example.com:5000/team/app", tag: "latest"},
		{input: "nginx:", repo: "library/nginx:", tag: "latest"},
		{input: "", repo: "library/", tag: "latest"},
	}

	for id, tt := range tests {
		ref := ParseDockerImage(tt.input)
		if ref.Repository != tt.repo {
			t.Errorf("#%d %s: unexpected repository %s, expected %s", id, tt.input, ref.Repository, tt.repo)
		}

		if ref.Tag != tt.tag {
			t.Errorf("#%d %s: unexpected tag %s, expected %s", id, tt.input, ref.Tag, tt.tag)
		}
	}
}

func TestParseDockerImageInvariants(t *testing.T) {
	inputs := []string{"nginx", "a:b:c", "x/y/z", "host.io:1/a", "::", "/", "a/:", "registry.example.com:5000/team/app:v2"}

	for _, input := range inputs {
		ref := ParseDockerImage(input)
		if ref.Tag == "" {
			t.Errorf("%q: tag should never be empty", input)
		}

		if !strings.Contains(ref.Repository, "/") {
			t.Errorf("%q: repository %q should contain a namespace", input, ref.Repository)
		}
	}
}

// Unambiguous references come back out the way they went in
func TestParseDockerImageRoundTrip(t *testing.T) {
	inputs := []string{"myrepo/app:1.0", "library/nginx:1.25", "org/team-image:2020-01-01", "a/b/c:d"}

	for _, input := range inputs {
		ref := ParseDockerImage(input)
		if ref.String() != input {
			t.Errorf("Round trip of %s gave %s", input, ref.String())
		}
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	os.Setenv("FC_TEST_VALUE", "set")
	defer os.Unsetenv("FC_TEST_VALUE")

	if v := GetEnvOrDefault("FC_TEST_VALUE", "default"); v != "set" {
		t.Errorf("Unexpected value %s", v)
	}

	if v := GetEnvOrDefault("FC_TEST_MISSING", "default"); v != "default" {
		t.Errorf("Unexpected value %s", v)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Unexpected error loading default config: %v", err)
	}

	if cfg.HubURL != "https://registry.hub.docker.com" {
		t.Errorf("Unexpected hub URL %s", cfg.HubURL)
	}

	if cfg.HubTimeout != 10*time.Second {
		t.Errorf("Unexpected hub timeout %v", cfg.HubTimeout)
	}

	if cfg.CheckWorkers != 1 {
		t.Errorf("Unexpected worker count %d", cfg.CheckWorkers)
	}

	if cfg.QueueType != QueueNone {
		t.Errorf("Unexpected queue type %s", cfg.QueueType)
	}

	if cfg.CheckInterval != 0 {
		t.Errorf("Periodic checks should be off by default, got %v", cfg.CheckInterval)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	type test struct {
		name  string
		value string
	}

	tests := []test{
		{name: "FC_HUB_URL", value: "not a url"},
		{name: "FC_QUEUE_TYPE", value: "kafka"},
		{name: "FC_CHECK_WORKERS", value: "many"},
		{name: "FC_CHECK_WORKERS", value: "0"},
		{name: "FC_HUB_TIMEOUT", value: "soon"},
		{name: "FC_DOCKER_TIMEOUT", value: "-1s"},
		{name: "FC_WEBHOOK_URL", value: "::nope"},
	}

	for id, tt := range tests {
		os.Setenv(tt.name, tt.value)
		_, err := LoadConfig()
		os.Unsetenv(tt.name)

		if err == nil {
			t.Errorf("#%d Expected an error with %s=%s", id, tt.name, tt.value)
		}
	}
}
