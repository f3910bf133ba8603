package eeg

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"neurosense/domain/core"
)

// iirFilter holds transfer-function coefficients of a digital IIR
// filter, normalized so a[0] == 1.
type iirFilter struct {
	b []float64
	a []float64
}

// padLen is the edge extension used by zero-phase filtering. Input
// shorter than this cannot be filtered.
func (f iirFilter) padLen() int {
	n := len(f.a)
	if len(f.b) > n {
		n = len(f.b)
	}
	return 3 * n
}

// notchFilter designs a second-order IIR notch at freq Hz with the
// given quality factor.
func notchFilter(freq, q, fs float64) iirFilter {
	w0 := 2 * math.Pi * freq / fs // notch frequency in radians/sample
	beta := math.Tan(w0 / (2 * q))
	gain := 1 / (1 + beta)

	c := math.Cos(w0)
	return iirFilter{
		b: []float64{gain, -2 * gain * c, gain},
		a: []float64{1, -2 * gain * c, 2*gain - 1},
	}
}

// butterBandpass designs a Butterworth band-pass [low, high] Hz of the
// given order via the analog prototype, low-pass to band-pass
// transform and bilinear transform.
func butterBandpass(low, high, fs float64, order int) (iirFilter, error) {
	nyq := fs / 2
	if low <= 0 || high >= nyq || low >= high {
		return iirFilter{}, core.NewConditioningError("band [%g, %g] Hz invalid for fs %g", low, high, fs)
	}

	// Pre-warp the normalized band edges for the bilinear transform.
	const dfs = 2.0 // normalized digital sampling rate
	w1 := 2 * dfs * math.Tan(math.Pi*(low/nyq)/dfs)
	w2 := 2 * dfs * math.Tan(math.Pi*(high/nyq)/dfs)
	bw := w2 - w1
	wo := math.Sqrt(w1 * w2)

	// Analog Butterworth prototype: poles on the unit circle in the
	// left half plane, no finite zeros, unity gain.
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		m := float64(2*(k+1) - order - 1)
		poles[k] = -cmplx.Exp(complex(0, math.Pi*m/float64(2*order)))
	}
	zeros := []complex128{}
	gain := 1.0

	// Low-pass prototype to band-pass.
	degree := len(poles) - len(zeros)
	bpPoles := make([]complex128, 0, 2*len(poles))
	for _, p := range poles {
		pl := p * complex(bw/2, 0)
		d := cmplx.Sqrt(pl*pl - complex(wo*wo, 0))
		bpPoles = append(bpPoles, pl+d, pl-d)
	}
	bpZeros := make([]complex128, degree) // zeros at the origin
	gain *= math.Pow(bw, float64(degree))

	// Bilinear transform to the digital plane.
	fs2 := complex(2*dfs, 0)
	dZeros := make([]complex128, 0, len(bpPoles))
	num := complex(1, 0)
	den := complex(1, 0)
	for _, z := range bpZeros {
		dZeros = append(dZeros, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	dPoles := make([]complex128, 0, len(bpPoles))
	for _, p := range bpPoles {
		dPoles = append(dPoles, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	for i := len(bpZeros); i < len(bpPoles); i++ {
		dZeros = append(dZeros, -1)
	}
	gain *= real(num / den)

	b := polyFromRoots(dZeros)
	a := polyFromRoots(dPoles)
	bf := make([]float64, len(b))
	for i, c := range b {
		bf[i] = gain * real(c)
	}
	af := make([]float64, len(a))
	for i, c := range a {
		af[i] = real(c)
	}
	return iirFilter{b: bf, a: af}, nil
}

// polyFromRoots expands prod(x - r_i) into descending-power
// coefficients.
func polyFromRoots(roots []complex128) []complex128 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	return coeffs
}

// lfilter applies the filter along x with initial state zi using the
// direct form II transposed structure. Returns the output and final
// state.
func (f iirFilter) lfilter(x, zi []float64) []float64 {
	n := len(f.a)
	if len(f.b) > n {
		n = len(f.b)
	}
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, f.b)
	copy(a, f.a)

	z := make([]float64, n-1)
	copy(z, zi)

	y := make([]float64, len(x))
	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for j := 1; j < n-1; j++ {
			z[j-1] = b[j]*xi + z[j] - a[j]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y
}

// steadyState computes the initial filter state whose step response
// has no startup transient, so filtfilt settles immediately at the
// signal edges.
func (f iirFilter) steadyState() ([]float64, error) {
	n := len(f.a)
	if len(f.b) > n {
		n = len(f.b)
	}
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, f.b)
	copy(a, f.a)

	// Companion matrix of a, transposed.
	m := n - 1
	companionT := mat.NewDense(m, m, nil)
	for j := 0; j < m; j++ {
		companionT.Set(j, 0, -a[j+1]/a[0])
	}
	for i := 1; i < m; i++ {
		companionT.Set(i-1, i, 1)
	}

	iMinusA := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			v := -companionT.At(i, j)
			if i == j {
				v++
			}
			iMinusA.Set(i, j, v)
		}
	}

	rhs := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(iMinusA, rhs); err != nil {
		return nil, core.NewConditioningError("filter steady state is singular: %v", err)
	}
	out := make([]float64, m)
	for i := 0; i < m; i++ {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// filtfilt applies the filter forward and backward for zero phase
// distortion, with odd reflection padding at both edges.
func (f iirFilter) filtfilt(x []float64) ([]float64, error) {
	edge := f.padLen()
	if len(x) <= edge {
		return nil, core.NewConditioningError("signal of %d samples too short for zero-phase filtering (need > %d)", len(x), edge)
	}

	ext := oddExtend(x, edge)
	zi, err := f.steadyState()
	if err != nil {
		return nil, err
	}

	y := f.lfilter(ext, scaled(zi, ext[0]))
	reverse(y)
	y = f.lfilter(y, scaled(zi, y[0]))
	reverse(y)

	return y[edge : len(y)-edge], nil
}

// oddExtend mirrors edge samples around the endpoints so the filter
// sees a continuous signal.
func oddExtend(x []float64, edge int) []float64 {
	out := make([]float64, 0, len(x)+2*edge)
	for i := edge; i >= 1; i-- {
		out = append(out, 2*x[0]-x[i])
	}
	out = append(out, x...)
	last := len(x) - 1
	for i := 1; i <= edge; i++ {
		out = append(out, 2*x[last]-x[last-i])
	}
	return out
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
