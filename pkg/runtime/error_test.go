package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDockerErrNotFoundVariants(t *testing.T) {
	for _, msg := range []string{
		"Error: No such image: alpine:404",
		"404 Not Found",
		"manifest unknown: manifest unknown",
	} {
		got := classifyDockerErr(errors.New(msg))
		assert.Equal(t, ImageNotFound, got.Kind, msg)
	}
}

func TestClassifyDockerErrOtherPullFailureIsImagePullFailed(t *testing.T) {
	got := classifyDockerErr(errors.New("dial tcp: lookup registry-1.docker.io: no such host"))
	assert.Equal(t, ImagePullFailed, got.Kind)
}
