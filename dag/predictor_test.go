package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictorAdapts(t *testing.T) {
	p := NewPredictor(4)
	assert.True(t, p.Predict(0), "counters start weakly favourable")

	p.Observe(0, false)
	assert.False(t, p.Predict(0))
	assert.True(t, p.Predict(1), "other depths are independent")

	p.Observe(0, true)
	assert.True(t, p.Predict(0))

	hits, misses := p.Observations()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestPredictorSaturatesDepth(t *testing.T) {
	p := NewPredictor(2)
	p.Observe(10, false)
	p.Observe(10, false)
	assert.False(t, p.Predict(2), "deep observations land in the last bucket")
	assert.True(t, p.Predict(1))
}

func TestPredictorExplores(t *testing.T) {
	p := NewPredictor(0)
	p.Observe(0, false)
	p.Observe(0, false)
	positives := 0
	for range 2 * exploreEvery {
		if p.Predict(0) {
			positives++
		}
	}
	assert.Equal(t, 2, positives)
}
