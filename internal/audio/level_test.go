package audio

import (
	"math"
	"testing"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0, 0}, 0},
		{"full scale", []float32{1, -1, 1, -1}, 1},
		{"half scale", []float32{0.5, -0.5}, 0.5},
	}

	for _, tt := range tests {
		if got := RMS(tt.samples); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: RMS = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDownmixMono_PassthroughForMono(t *testing.T) {
	in := []float32{1, 2, 3}
	got := DownmixMono(nil, in, 1)
	if &got[0] != &in[0] {
		t.Error("Expected mono input to be returned without copying")
	}
}

func TestDownmixMono_TakesFirstChannel(t *testing.T) {
	// Interleaved stereo: L R L R L R
	in := []float32{1, 10, 2, 20, 3, 30}
	got := DownmixMono(make([]float32, 3), in, 2)

	want := []float32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestDownmixMono_GrowsDestination(t *testing.T) {
	in := []float32{1, 10, 2, 20}
	got := DownmixMono(nil, in, 2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2], got %v", got)
	}
}
