package update

import (
	"errors"
	"fmt"
	"time"

	"github.com/adamancini/tuolauncher/internal/types"
)

// Kind classifies update failures
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindHTTPStatus
	KindParse
	KindSelection
	KindIO
	KindProcess
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindNetwork:    "network",
	KindHTTPStatus: "http-status",
	KindParse:      "parse",
	KindSelection:  "selection",
	KindIO:         "io",
	KindProcess:    "process",
	KindTimeout:    "timeout",
}

// String returns the kind name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrAssetNotFound is returned when no release asset matches the platform
	ErrAssetNotFound = errors.New("no matching release asset")
	// ErrUnsupportedPlatform is returned for OS/arch pairs without builds
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrNoRelease is returned when the registry holds nothing for a channel
	ErrNoRelease = errors.New("no release data")
	// ErrBreakerOpen is returned while upstream failures have tripped the breaker
	ErrBreakerOpen = errors.New("release API temporarily unavailable")
)

// Error is a classified update failure
type Error struct {
	Kind       Kind
	Op         string        // Operation, e.g. "fetch", "download"
	Channel    types.Channel // Empty when not channel-bound
	StatusCode int           // Set for KindHTTPStatus
	Err        error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Channel != "" {
		msg += " " + e.Channel.String()
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return KindHTTPStatus
	}
	return KindUnknown
}

// RateLimitError is returned when the release API quota is exhausted
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded (limit %d, resets at %s)",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}
