package audio

import "math"

// RMS returns the root-mean-square energy of a block of float32 samples.
// Used for the input-level gauge and by the tempo estimator's silence
// gating; zero for an empty block.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sumSquares float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}

// DownmixMono reduces an interleaved multi-channel block to mono by
// taking the first channel of each frame, writing into dst to keep the
// realtime path allocation-free. With channels <= 1 the input is
// returned as-is. The reduction is deterministic so successive blocks
// stay phase-coherent.
func DownmixMono(dst, in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}

	frames := len(in) / channels
	if cap(dst) < frames {
		dst = make([]float32, frames)
	}
	dst = dst[:frames]
	for i := 0; i < frames; i++ {
		dst[i] = in[i*channels]
	}
	return dst
}
