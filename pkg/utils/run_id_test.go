package utils_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/floodfill-go/pkg/utils"
)

func TestGenerateRunID(t *testing.T) {
	id := utils.GenerateRunID()

	assert.Regexp(t, regexp.MustCompile(`^run-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, utils.GenerateRunID())
}

func TestGenerateJobID(t *testing.T) {
	tests := []struct {
		input  string
		prefix string
	}{
		{"/data/2019/MCD64A1_h19v10.tif", "MCD64A1_h19v10-"},
		{"tile 7.tif", "tile_7-"},
		{"grid-3", "grid-3-"},
		{"", "job-"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id := utils.GenerateJobID(tt.input)
			assert.Regexp(t, "^"+regexp.QuoteMeta(tt.prefix)+"[0-9a-f]{8}$", id)
		})
	}
}

func TestMinAndClamp(t *testing.T) {
	assert.Equal(t, 2, utils.Min(8, 2, 5))
	assert.Equal(t, 3, utils.Min(3))
	assert.Equal(t, 1, utils.Clamp(0, 1, 4))
	assert.Equal(t, 4, utils.Clamp(9, 1, 4))
	assert.Equal(t, 2, utils.Clamp(2, 1, 4))
}
