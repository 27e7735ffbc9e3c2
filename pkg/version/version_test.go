package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionConstantsNotEmpty(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, ProtocolVersion)
	assert.NotEmpty(t, MinCompatibleProtocolVersion)
}

func TestGetMatchesConstants(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, ProtocolVersion, info.ProtocolVersion)
	assert.Equal(t, MinCompatibleProtocolVersion, info.MinCompatibleProtocolVersion)
}
