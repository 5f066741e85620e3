package shaders

import _ "embed"

//go:embed voxels.wgsl
var VoxelsWGSL string
