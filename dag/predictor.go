package dag

const (
	predictorMax     = 3
	predictorInitial = 2
	// exploreEvery forces a positive prediction after this many consecutive
	// negative ones, so a depth that stopped paying off can recover.
	exploreEvery = 16
)

// Predictor is a table of 2-bit saturating counters, one per recursion
// depth. Depths beyond MaxDepth share the last counter.
type Predictor struct {
	counters []uint8
	skipped  []uint8
	hits     uint64
	misses   uint64
}

func NewPredictor(maxDepth int) *Predictor {
	n := max(maxDepth, 0) + 1
	p := &Predictor{counters: make([]uint8, n), skipped: make([]uint8, n)}
	p.Reset()
	return p
}

func (p *Predictor) bucket(depth int) int {
	return min(max(depth, 0), len(p.counters)-1)
}

// Predict reports whether work at this depth is expected to pay off.
func (p *Predictor) Predict(depth int) bool {
	b := p.bucket(depth)
	if p.counters[b] >= predictorInitial {
		return true
	}
	p.skipped[b]++
	if p.skipped[b] >= exploreEvery {
		p.skipped[b] = 0
		return true
	}
	return false
}

// Observe feeds back whether the work at depth paid off.
func (p *Predictor) Observe(depth int, payoff bool) {
	b := p.bucket(depth)
	if payoff {
		p.hits++
		if p.counters[b] < predictorMax {
			p.counters[b]++
		}
		return
	}
	p.misses++
	if p.counters[b] > 0 {
		p.counters[b]--
	}
}

func (p *Predictor) Reset() {
	for i := range p.counters {
		p.counters[i] = predictorInitial
		p.skipped[i] = 0
	}
	p.hits, p.misses = 0, 0
}

// Observations returns how many payoffs and misses were reported.
func (p *Predictor) Observations() (hits, misses uint64) {
	return p.hits, p.misses
}
