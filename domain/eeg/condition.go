package eeg

// Conditioning constants. Fixed by the recording protocol, not
// configurable per request.
const (
	NotchFreq     = 50.0 // line noise, Hz
	NotchQ        = 30.0
	BandLow       = 1.0 // Hz
	BandHigh      = 40.0
	BandpassOrder = 4
)

// Conditioner applies deterministic signal conditioning to one trial
// at a time: 50 Hz notch, 1-40 Hz band-pass, then per-channel DC
// removal. Every stage is pure and stateless given the fixed
// coefficients.
type Conditioner struct {
	notchFreq float64
	notchQ    float64
	bandLow   float64
	bandHigh  float64
	order     int
}

// NewConditioner creates a conditioner with the protocol defaults.
func NewConditioner() *Conditioner {
	return &Conditioner{
		notchFreq: NotchFreq,
		notchQ:    NotchQ,
		bandLow:   BandLow,
		bandHigh:  BandHigh,
		order:     BandpassOrder,
	}
}

// Condition filters one (channel, sample) trial at sampling rate fs.
// The input is not modified. Trials shorter than the zero-phase
// padding requirement fail with a conditioning error.
func (c *Conditioner) Condition(trial [][]float64, fs float64) ([][]float64, error) {
	notch := notchFilter(c.notchFreq, c.notchQ, fs)
	band, err := butterBandpass(c.bandLow, c.bandHigh, fs, c.order)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, len(trial))
	for ch, row := range trial {
		filtered, err := notch.filtfilt(row)
		if err != nil {
			return nil, err
		}
		filtered, err = band.filtfilt(filtered)
		if err != nil {
			return nil, err
		}
		removeMean(filtered)
		out[ch] = filtered
	}
	return out, nil
}

// MinSamples reports the shortest trial the conditioner accepts at
// any sampling rate. Dictated by the band-pass coefficient length.
func (c *Conditioner) MinSamples() int {
	band, err := butterBandpass(c.bandLow, c.bandHigh, 250, c.order)
	if err != nil {
		return 0
	}
	return band.padLen() + 1
}

func removeMean(x []float64) {
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean := sum / float64(len(x))
	for i := range x {
		x[i] -= mean
	}
}
