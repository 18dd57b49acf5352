package audio

// Ring is a fixed-capacity circular store of mono float32 samples.
// Writes wrap around and, once the ring is full, overwrite the oldest
// samples so the ring always holds the most recent window of audio.
// Ring itself is not safe for concurrent use; State serializes access.
type Ring struct {
	storage    []float32
	capacity   int
	minSamples int // minimum filled samples before Snapshot returns data
	writePos   int // index of the next write, in [0, capacity)
	filled     int // number of valid samples held, in [0, capacity]
}

// NewRing creates a ring holding capacity samples. Snapshot returns nil
// until at least minSamples samples have been written.
func NewRing(capacity, minSamples int) *Ring {
	return &Ring{
		storage:    make([]float32, capacity),
		capacity:   capacity,
		minSamples: minSamples,
	}
}

// Write appends samples to the ring. When the input is at least as large
// as the ring, everything previously buffered is discarded and the ring
// is reloaded with the last capacity samples of the input; otherwise the
// samples are written at the cursor, wrapping to the start as needed.
// Write never allocates and never fails.
func (r *Ring) Write(samples []float32) {
	n := len(samples)
	if n == 0 {
		return
	}

	if n >= r.capacity {
		// Keep only the most recent window.
		copy(r.storage, samples[n-r.capacity:])
		r.writePos = 0
		r.filled = r.capacity
		return
	}

	end := r.writePos + n
	if end <= r.capacity {
		copy(r.storage[r.writePos:end], samples)
	} else {
		first := r.capacity - r.writePos
		copy(r.storage[r.writePos:], samples[:first])
		copy(r.storage, samples[first:])
	}
	r.writePos = end % r.capacity
	if r.filled += n; r.filled > r.capacity {
		r.filled = r.capacity
	}
}

// Snapshot returns a newly allocated, oldest-first copy of the samples
// currently held, or nil when fewer than minSamples samples are buffered.
func (r *Ring) Snapshot() []float32 {
	if r.filled < r.minSamples {
		return nil
	}

	out := make([]float32, r.filled)
	if r.filled == r.capacity {
		// Full ring: oldest sample sits at the write cursor.
		n := copy(out, r.storage[r.writePos:])
		copy(out[n:], r.storage[:r.writePos])
	} else {
		copy(out, r.storage[:r.filled])
	}
	return out
}

// Len returns the number of valid samples currently held.
func (r *Ring) Len() int {
	return r.filled
}

// Cap returns the fixed capacity of the ring.
func (r *Ring) Cap() int {
	return r.capacity
}

// Clear empties the ring. Zeroing the storage is not required for
// correctness (filled gates validity) but keeps stale audio from
// surviving a stop/start cycle.
func (r *Ring) Clear() {
	for i := range r.storage {
		r.storage[i] = 0
	}
	r.writePos = 0
	r.filled = 0
}
