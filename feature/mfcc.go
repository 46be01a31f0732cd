package feature

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// mfcc computes mel-frequency cepstral coefficients frame by frame and
// averages them, yielding one numCoeffs-dimensional vector per signal.
type mfcc struct {
	sampleRate int
	fftSize    int
	hopSize    int
	numBands   int
	numCoeffs  int

	fft        *fourier.FFT
	dct        *fourier.DCT
	window     []float64
	filterbank [][]filterWeight
}

type filterWeight struct {
	bin    int
	weight float64
}

func newMFCC(sampleRate, fftSize, hopSize, numBands, numCoeffs int) *mfcc {
	m := &mfcc{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hopSize:    hopSize,
		numBands:   numBands,
		numCoeffs:  numCoeffs,
		fft:        fourier.NewFFT(fftSize),
		dct:        fourier.NewDCT(numBands),
		window:     hannWindow(fftSize),
	}
	m.filterbank = melFilterbank(sampleRate, fftSize, numBands)
	return m
}

// compute returns the mean MFCC vector across all frames of signal.
// The signal must already be mono at m.sampleRate. Signals shorter than
// one FFT frame are zero-padded to a single frame.
func (m *mfcc) compute(signal []float64) Vector {
	numFrames := 1
	if len(signal) > m.fftSize {
		numFrames = 1 + (len(signal)-m.fftSize)/m.hopSize
	}

	mean := make(Vector, m.numCoeffs)
	frame := make([]float64, m.fftSize)
	spectrum := make([]complex128, m.fftSize/2+1)
	power := make([]float64, m.fftSize/2+1)
	melEnergy := make([]float64, m.numBands)
	cepstrum := make([]float64, m.numBands)

	for f := 0; f < numFrames; f++ {
		start := f * m.hopSize
		for i := range frame {
			if start+i < len(signal) {
				frame[i] = signal[start+i] * m.window[i]
			} else {
				frame[i] = 0
			}
		}

		spectrum = m.fft.Coefficients(spectrum, frame)
		for i, c := range spectrum {
			re, im := real(c), imag(c)
			power[i] = re*re + im*im
		}

		for b, filter := range m.filterbank {
			var e float64
			for _, fw := range filter {
				e += power[fw.bin] * fw.weight
			}
			// Log floor avoids -Inf on silent bands.
			melEnergy[b] = math.Log(e + 1e-10)
		}

		cepstrum = m.dct.Transform(cepstrum, melEnergy)
		for i := 0; i < m.numCoeffs; i++ {
			mean[i] += cepstrum[i]
		}
	}

	for i := range mean {
		mean[i] /= float64(numFrames)
	}
	return mean
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// melFilterbank builds numBands triangular filters spanning 0..sampleRate/2
// on the mel scale, expressed as sparse per-bin weights.
func melFilterbank(sampleRate, fftSize, numBands int) [][]filterWeight {
	numBins := fftSize/2 + 1
	maxMel := hzToMel(float64(sampleRate) / 2)

	// Band edge frequencies: numBands+2 points evenly spaced in mel.
	edges := make([]float64, numBands+2)
	for i := range edges {
		mel := maxMel * float64(i) / float64(numBands+1)
		edges[i] = melToHz(mel)
	}

	binHz := float64(sampleRate) / float64(fftSize)
	filters := make([][]filterWeight, numBands)
	for b := 0; b < numBands; b++ {
		lo, center, hi := edges[b], edges[b+1], edges[b+2]
		var filter []filterWeight
		for bin := 0; bin < numBins; bin++ {
			f := float64(bin) * binHz
			var w float64
			switch {
			case f <= lo || f >= hi:
				continue
			case f <= center:
				w = (f - lo) / (center - lo)
			default:
				w = (hi - f) / (hi - center)
			}
			filter = append(filter, filterWeight{bin: bin, weight: w})
		}
		filters[b] = filter
	}
	return filters
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}
