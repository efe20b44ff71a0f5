package mission

import (
	"math/rand/v2"
	"sync"
	"time"
)

// NewRand returns a PCG generator. seed 0 seeds from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// sampler serializes access to a *rand.Rand shared by concurrent requests.
type sampler struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newSampler(r *rand.Rand) *sampler {
	return &sampler{r: r}
}

// between returns a uniform value in [lo, hi]. hi <= lo yields lo.
func (s *sampler) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.IntN(hi-lo+1)
}

// pick returns k distinct indices from [0, n) using a partial Fisher-Yates
// shuffle. k is clamped to n.
func (s *sampler) pick(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + s.r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
