package outfits

const (
	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223
)

// LCG is the linear-congruential generator (mod 2^32) behind the seeded shuffle.
// The state advances before every draw, so the first value is derived from seed, not seed itself.
type LCG struct {
	state uint32
}

func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Next advances the state and returns it. Overflow is the mod 2^32.
func (l *LCG) Next() uint32 {
	l.state = l.state*lcgMultiplier + lcgIncrement
	return l.state
}

// Float64 returns state / 2^32, in [0, 1).
func (l *LCG) Float64() float64 {
	return float64(l.Next()) / (1 << 32)
}

// Intn returns floor(Float64() * n) without going through floating point.
func (l *LCG) Intn(n int) int {
	return int(uint64(l.Next()) * uint64(n) >> 32)
}

// Shuffle permutes s in place with a reverse Fisher–Yates driven by an LCG seeded with seed.
func Shuffle[T any](s []T, seed uint32) {
	rng := NewLCG(seed)
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
