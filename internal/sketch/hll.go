package sketch

import (
	"math"
	"math/bits"
)

// hll is a plain HyperLogLog register array. The top p hash bits select a
// register; the register keeps the maximum rank (leading-zero count + 1) of
// the remaining bits. Union is the register-wise max, which is what makes
// the containing Sketch associative and commutative under merge.
type hll struct {
	p    uint8
	regs []uint8
}

func newHLL(p uint8) *hll {
	return &hll{p: p, regs: make([]uint8, 1<<p)}
}

func (h *hll) insert(x uint64) {
	idx := x >> (64 - h.p)
	// Rank of the remaining 64-p bits, capped by the register width.
	rank := uint8(bits.LeadingZeros64(x<<h.p|1<<(h.p-1))) + 1
	if rank > h.regs[idx] {
		h.regs[idx] = rank
	}
}

func (h *hll) union(o *hll) {
	for i, r := range o.regs {
		if r > h.regs[i] {
			h.regs[i] = r
		}
	}
}

func (h *hll) clone() *hll {
	out := &hll{p: h.p, regs: make([]uint8, len(h.regs))}
	copy(out.regs, h.regs)
	return out
}

// estimate applies the standard bias-corrected harmonic mean, with the
// linear-counting correction for the small range. No large-range correction
// is needed with 64-bit hashes.
func (h *hll) estimate() uint64 {
	m := float64(len(h.regs))
	var sum float64
	zeros := 0
	for _, r := range h.regs {
		sum += 1 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}
	est := alpha(len(h.regs)) * m * m / sum
	if est <= 2.5*m && zeros > 0 {
		est = m * math.Log(m/float64(zeros))
	}
	return uint64(est + 0.5)
}

func (h *hll) stdError() float64 {
	return 1.04 / math.Sqrt(float64(len(h.regs)))
}

// alpha is the bias-correction constant for m registers.
func alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}
