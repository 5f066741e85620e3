package shaders

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoxelsWGSL_EntryPoints(t *testing.T) {
	assert.True(t, strings.Contains(VoxelsWGSL, "fn vs_main"))
	assert.True(t, strings.Contains(VoxelsWGSL, "fn fs_main"))
	assert.Contains(t, VoxelsWGSL, "@binding(1) var<storage, read> instances")
}
