package runtime

import (
	"errors"
	"strings"
)

// ErrorKind classifies a runtime failure so the scheduler can map it onto
// a specific DeploymentStatus rather than a generic Error.
type ErrorKind string

const (
	ImageNotFound         ErrorKind = "ImageNotFound"
	ImagePullFailed       ErrorKind = "ImagePullFailed"
	InstanceCreationFailed ErrorKind = "InstanceCreationFailed"
	ConfigNotFound        ErrorKind = "ConfigNotFound"
	ConfigKeyNotFound     ErrorKind = "ConfigKeyNotFound"
	FileSystemError       ErrorKind = "FileSystemError"
	NetworkCreationFailed ErrorKind = "NetworkCreationFailed"
	Other                 ErrorKind = "Other"
)

// Error is a classified runtime failure. The scheduler inspects Kind to
// decide which terminal DeploymentStatus and event to record.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Kind extracts the ErrorKind from err, defaulting to Other for anything
// that isn't a *Error produced by this package.
func Kind(err error) ErrorKind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return Other
}

// classifyDockerErr turns a raw Docker Engine API error from an ImagePull
// call into ImageNotFound when it looks like a missing-image response,
// matching the bollard 404/"not found"/"manifest unknown" heuristic, and
// ImagePullFailed for any other pull failure (registry unreachable, auth
// rejected, rate limited, etc).
func classifyDockerErr(err error) *Error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "404") || strings.Contains(lower, "not found") || strings.Contains(lower, "manifest unknown") {
		return newError(ImageNotFound, msg)
	}
	return newError(ImagePullFailed, msg)
}
