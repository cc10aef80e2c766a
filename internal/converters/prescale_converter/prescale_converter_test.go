package prescale_converter

import (
	"testing"

	"github.com/ecopia-map/lsrn_pcgc/internal/data"
	"github.com/stretchr/testify/assert"
)

func TestPreScaleIdentity(t *testing.T) {
	points := []data.Point{{X: 3, Y: 2, Z: 1}, {X: 3, Y: 2, Z: 1}}
	for _, factor := range []float32{0, 0.5, 1} {
		c := NewPreScaleConverter(factor)
		assert.True(t, c.IsIdentity())
		assert.Equal(t, points, c.Upscale(points))
		assert.Equal(t, []data.Point{{X: 3, Y: 2, Z: 1}}, c.Downscale(points))
	}
}

func TestPreScaleRoundTrip(t *testing.T) {
	c := NewPreScaleConverter(2.5)
	assert.False(t, c.IsIdentity())

	// 1 * 2.5 = 2.5 rounds up to 3
	up := c.Upscale([]data.Point{{X: 1, Y: 2, Z: -1}})
	assert.Equal(t, []data.Point{{X: 3, Y: 5, Z: -2}}, up)

	// 7 / 2.5 = 2.8, 5 / 2.5 = 2, 4 / 2.5 = 1.6
	down := c.Downscale([]data.Point{{X: 7, Y: 5, Z: 4}, {X: 6, Y: 5, Z: 4}})
	assert.Equal(t, []data.Point{{X: 2, Y: 2, Z: 2}, {X: 3, Y: 2, Z: 2}}, down)
}
