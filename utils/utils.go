package utils

import (
	"fmt"
	"os"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// DefaultTag is used when an image reference has no usable tag
	DefaultTag = "latest"

	// OfficialNamespace holds the official images on Docker Hub
	OfficialNamespace = "library"
)

var (
	log                = logging.MustGetLogger("freshcheck")
	loggingInitialized bool
)

// ImageReference is a repository / tag pair in the form the Docker Hub tags API expects
type ImageReference struct {
	Repository string
	Tag        string
}

func (r ImageReference) String() string {
	return r.Repository + ":" + r.Tag
}

// ParseDockerImage splits a container's image string into repository and tag. It never
// fails: anything it can't make sense of falls back to the whole input with the latest tag.
// Official images get the library namespace, so nginx becomes library/nginx:latest.
func ParseDockerImage(imageInput string) (ref ImageReference) {
	segments := strings.Split(imageInput, "/")
	if len(segments) > 1 {
		first := segments[0]
		hasColon := strings.Contains(first, ":")
		hasDot := strings.Contains(first, ".")

		if hasColon && hasDot {
			// registry.example.com:5000/team/app:v2 - the port colon isn't the tag separator
			i := strings.LastIndex(imageInput, ":")
			ref.Repository = imageInput[:i]
			ref.Tag = imageInput[i+1:]
		} else {
			ref.Repository, ref.Tag = splitFirstColon(imageInput)
		}
	} else {
		ref.Repository, ref.Tag = splitFirstColon(imageInput)
	}

	// An empty tag, or one with a slash in it, means we split on the wrong colon
	if ref.Tag == "" || strings.Contains(ref.Tag, "/") {
		ref.Repository = imageInput
		ref.Tag = DefaultTag
	}

	if !strings.Contains(ref.Repository, "/") {
		ref.Repository = OfficialNamespace + "/" + ref.Repository
	}

	return ref
}

// splitFirstColon returns what comes before the first colon and what comes between it and
// the next one, if there is one.
func splitFirstColon(s string) (before string, after string) {
	parts := strings.Split(s, ":")
	before = parts[0]
	if len(parts) > 1 {
		after = parts[1]
	}

	return before, after
}

// GetEnvOrDefault returns an env var or the default value if it doesn't exist.
func GetEnvOrDefault(name string, defaultValue string) string {
	v := os.Getenv(name)
	if v == "" {
		v = defaultValue
	}

	return v
}

// InitLogging configures the logging settings.
func InitLogging() {
	if loggingInitialized {
		log.Infof("Logging already initialized")
		return
	}

	// The FC_LOG_DEBUG environment variable controls what logging is output
	// By default the log level is INFO for all components
	// Adding a component name to FC_LOG_DEBUG makes its logging level DEBUG
	// In addition, if "detail" is included in the environment variable details of the process ID and file name / line number are included in the logs
	// FC_LOG_DEBUG="all" - turn on DEBUG for all components
	// FC_LOG_DEBUG="fchub,detail" - turn on DEBUG for the hub package, and use the detailed logging format
	basicLogFormat := logging.MustStringFormatter(`%{color}%{level:.4s} %{time:15:04:05.000}: %{color:reset} %{message}`)
	detailLogFormat := logging.MustStringFormatter(`%{color}%{level:.4s} %{time:15:04:05.000} %{pid} %{shortfile}: %{color:reset} %{message}`)

	logComponents := GetEnvOrDefault("FC_LOG_DEBUG", "none")
	if strings.Contains(logComponents, "detail") {
		logging.SetFormatter(detailLogFormat)
	} else {
		logging.SetFormatter(basicLogFormat)
	}

	fmt.Println("Init Logging")
	logBackend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetBackend(logBackend)

	var components = []string{"freshcheck", "fcapi", "fccheck", "fcdocker", "fchub", "fcqueue", "fcnotify", "fcstream"}

	for _, component := range components {
		if strings.Contains(logComponents, component) || strings.Contains(logComponents, "all") {
			logging.SetLevel(logging.DEBUG, component)
		} else {
			logging.SetLevel(logging.INFO, component)
		}
	}

	loggingInitialized = true
}
