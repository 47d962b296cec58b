package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion(t *testing.T) {
	origVersion, origCommit := version, gitCommit
	t.Cleanup(func() { version, gitCommit = origVersion, origCommit })

	version, gitCommit = "v0.3.0", ""
	assert.Equal(t, "v0.3.0", GetVersion())
	assert.Equal(t, "v0.3.0", GetFullVersion())

	gitCommit = "0123456789abcdef"
	assert.Equal(t, "v0.3.0 (0123456)", GetFullVersion())
}
