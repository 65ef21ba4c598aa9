package dashboard

import (
	"regexp"
	"strconv"
	"strings"
)

// NodeJobStatus is the job axis of a node's status.
type NodeJobStatus string

const (
	JobIdle    NodeJobStatus = "idle"
	JobQueue   NodeJobStatus = "queue"
	JobRunning NodeJobStatus = "running"
)

// Connectivity is the connectivity axis of a node's status.
type Connectivity string

const (
	Online  Connectivity = "online"
	Offline Connectivity = "offline"
	Unknown Connectivity = "unknown"
)

var jobCountPattern = regexp.MustCompile(`(\d+)\s*job`)

// ClassifyJobStatus maps page text to a job status.
// Precedence: running > queue > idle. Matching is case-insensitive.
func ClassifyJobStatus(pageText string) NodeJobStatus {
	text := strings.ToLower(pageText)
	switch {
	case strings.Contains(text, "running"):
		return JobRunning
	case strings.Contains(text, "queue"): // also covers "queued"
		return JobQueue
	default:
		return JobIdle
	}
}

// ClassifyConnectivity maps page text to connectivity.
// Precedence: offline > online/active > unknown.
func ClassifyConnectivity(pageText string) Connectivity {
	text := strings.ToLower(pageText)
	switch {
	case strings.Contains(text, "offline"):
		return Offline
	case strings.Contains(text, "online"), strings.Contains(text, "active"):
		return Online
	default:
		return Unknown
	}
}

// ExtractJobCount returns the first "<N> job" count found in the page text.
func ExtractJobCount(pageText string) int {
	m := jobCountPattern.FindStringSubmatch(strings.ToLower(pageText))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
