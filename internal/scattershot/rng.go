package scattershot

// RNG is a counter-based splitmix64 stream. Every draw advances the counter,
// so a stream's output depends only on its seed and the number of draws made.
type RNG struct {
	seed    uint64
	counter uint64
}

const golden = 0x9E3779B97F4A7C15

// NewRNG creates a stream for seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{seed: seed}
}

func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Uint64 returns the next value and advances the stream.
func (r *RNG) Uint64() uint64 {
	r.counter++
	return mix(r.seed + r.counter*golden)
}

// Split derives an independent stream for index i. The parent is not advanced.
func (r *RNG) Split(i uint64) *RNG {
	return &RNG{seed: mix(r.seed ^ mix((i+1)*golden))}
}

// Draws returns the number of values drawn so far.
func (r *RNG) Draws() uint64 {
	return r.counter
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Choose draws an index with probability proportional to weights.
// It returns -1 when no weight is positive.
func (r *RNG) Choose(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	x := r.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return i
		}
		x -= w
	}
	return last
}
