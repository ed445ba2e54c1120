// Package rng implements the PCG32 generator used for all gameplay randomness.
package rng

// PCG32 is a permuted congruential generator with 64-bit state.
// The zero value is not useful; use New or Seed.
type PCG32 struct {
	state uint64
	inc   uint64
}

const (
	initState = 0x853c49e6748fea9b
	initInc   = 0xda3e39cb94b95bdb
	mult      = 6364136223846793005
)

// New returns a generator in the canonical initial state.
func New() *PCG32 {
	return &PCG32{state: initState, inc: initInc}
}

// Perturb offsets the canonical state the way the map loader does with the
// tick count: the stream is moved forward by k and the state backward.
func Perturb(k uint64) *PCG32 {
	return &PCG32{state: initState - k, inc: initInc + k}
}

// Seed reinitialises the generator from a state and a stream selector.
func (p *PCG32) Seed(initState, initSeq uint64) {
	p.state = 0
	p.inc = initSeq<<1 | 1
	p.Uint32()
	p.state += initState
	p.Uint32()
}

// Uint32 returns the next value of the stream.
func (p *PCG32) Uint32() uint32 {
	old := p.state
	p.state = old*mult + (p.inc | 1)
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return xorshifted>>rot | xorshifted<<((-rot)&31)
}

// Intn returns a value in [0, n) by multiply-shift. Intn(0) is 0.
func (p *PCG32) Intn(n uint32) uint32 {
	return uint32((uint64(p.Uint32()) * uint64(n)) >> 32)
}

// Float32 returns a value in [0, 1) with 24 bits of precision.
func (p *PCG32) Float32() float32 {
	return float32(p.Uint32()>>8) * (1.0 / 16777216.0)
}
