package rng

import "testing"

// Reference values for pcg32_srandom_r(42, 54) from the PCG demo program.
func TestSeededSequence(t *testing.T) {
	p := &PCG32{}
	p.Seed(42, 54)

	expected := []uint32{0xa15c02b7, 0x7b47f409, 0xba1d3330, 0x83d2f293, 0xbfa4784b, 0xcbed606e}
	for i, want := range expected {
		if got := p.Uint32(); got != want {
			t.Errorf("value %d = %#08x, expected %#08x", i, got, want)
		}
	}
}

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(), New()
	for i := 0; i < 100; i++ {
		if a.Uint32() != b.Uint32() {
			t.Fatalf("streams diverged at %d", i)
		}
	}
}

func TestPerturbChangesStream(t *testing.T) {
	a, b := Perturb(1), Perturb(2)
	same := 0
	for i := 0; i < 16; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same == 16 {
		t.Error("different perturbations produced the same stream")
	}
}

func TestIntnRange(t *testing.T) {
	tests := []struct {
		name string
		n    uint32
	}{
		{"zero", 0},
		{"one", 1},
		{"small", 7},
		{"large", 1 << 31},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				v := p.Intn(tt.n)
				if tt.n == 0 && v != 0 {
					t.Fatalf("Intn(0) = %d", v)
				}
				if tt.n > 0 && v >= tt.n {
					t.Fatalf("Intn(%d) = %d out of range", tt.n, v)
				}
			}
		})
	}
}

func TestFloat32Range(t *testing.T) {
	p := New()
	for i := 0; i < 1000; i++ {
		if f := p.Float32(); f < 0 || f >= 1 {
			t.Fatalf("Float32() = %v out of [0, 1)", f)
		}
	}
}
