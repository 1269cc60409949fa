package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgres://ff:****@db:5432/floodfill", maskPassword("postgres://ff:secret@db:5432/floodfill"))
	assert.Equal(t, "postgres://db/floodfill", maskPassword("postgres://db/floodfill"))
	assert.Equal(t, "host=db user=ff", maskPassword("host=db user=ff"))
}
