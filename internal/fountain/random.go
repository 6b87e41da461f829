package fountain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/bits"
)

// xoshiro is the xoshiro256** generator, seeded from the SHA-256
// digest of a byte string. Both ends of a transfer must derive the
// same sequence, so this cannot be swapped for math/rand.
type xoshiro struct {
	s [4]uint64
}

func newXoshiro(seed []byte) *xoshiro {
	digest := sha256.Sum256(seed)
	var x xoshiro
	for i := range x.s {
		x.s[i] = binary.BigEndian.Uint64(digest[i*8:])
	}
	return &x
}

func (x *xoshiro) next() uint64 {
	s := &x.s
	ret := bits.RotateLeft64(s[1]*5, 7) * 9
	t := s[1] << 17
	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]
	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)
	return ret
}

// nextDouble returns a value in [0, 1).
func (x *xoshiro) nextDouble() float64 {
	return float64(x.next()) / (float64(math.MaxUint64) + 1)
}

// nextInt returns a value in [low, high].
func (x *xoshiro) nextInt(low, high int) int {
	return int(x.nextDouble()*float64(high-low+1)) + low
}

// sampler draws indices from a discrete distribution with Vose's
// alias method.
type sampler struct {
	probs   []float64
	aliases []int
}

func newSampler(weights []float64) *sampler {
	n := len(weights)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	p := make([]float64, n)
	for i, w := range weights {
		p[i] = w * float64(n) / sum
	}

	var small, large []int
	for i := n - 1; i >= 0; i-- {
		if p[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	ret := &sampler{
		probs:   make([]float64, n),
		aliases: make([]int, n),
	}
	for len(small) > 0 && len(large) > 0 {
		a := small[len(small)-1]
		small = small[:len(small)-1]
		g := large[len(large)-1]
		large = large[:len(large)-1]
		ret.probs[a] = p[a]
		ret.aliases[a] = g
		p[g] += p[a] - 1
		if p[g] < 1 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}
	for _, i := range large {
		ret.probs[i] = 1
	}
	for _, i := range small {
		ret.probs[i] = 1
	}
	return ret
}

func (s *sampler) next(rng *xoshiro) int {
	r1, r2 := rng.nextDouble(), rng.nextDouble()
	i := int(float64(len(s.probs)) * r1)
	if r2 < s.probs[i] {
		return i
	}
	return s.aliases[i]
}

// chooseFragments returns the 0-based indices of the fragments that
// are mixed into part seqNum. The first seqLen parts are the
// fragments themselves; later parts mix a pseudo-random subset chosen
// from seqNum and the message checksum.
func chooseFragments(seqNum uint32, seqLen int, checksum uint32) []int {
	if int(seqNum) <= seqLen {
		return []int{int(seqNum) - 1}
	}

	var seed [8]byte
	binary.BigEndian.PutUint32(seed[:4], seqNum)
	binary.BigEndian.PutUint32(seed[4:], checksum)
	rng := newXoshiro(seed[:])

	weights := make([]float64, seqLen)
	for i := range weights {
		weights[i] = 1 / float64(i+1)
	}
	degree := newSampler(weights).next(rng) + 1

	remaining := make([]int, seqLen)
	for i := range remaining {
		remaining[i] = i
	}
	shuffled := make([]int, 0, seqLen)
	for len(remaining) > 0 {
		i := rng.nextInt(0, len(remaining)-1)
		shuffled = append(shuffled, remaining[i])
		remaining = append(remaining[:i], remaining[i+1:]...)
	}
	return shuffled[:degree]
}
