package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", []byte{}, 0x00},
		{"single", []byte{0x01}, 0xFF},
		{"wraps", []byte{0xFF, 0x01}, 0x00},
		{"function id only", []byte{201}, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestChecksum_SumsToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		b := make([]byte, 1+rng.Intn(40))
		rng.Read(b)

		var sum byte
		for _, v := range b {
			sum += v
		}
		sum += Checksum(b)
		if sum != 0 {
			t.Fatalf("sum(%v ++ checksum) = %d, want 0", b, sum)
		}
	}
}

func TestEncode_ReferenceProfile(t *testing.T) {
	p := Profile{Model: "YB180", Probe: ProbeTemperature, SetPoint: 128, HardStart: 50, MinimumOutput: 17}

	f, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := Frame{0, 201, 0, 0, 128, 50, 17, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	want[0] = Checksum(want[1:])

	if f != want {
		t.Errorf("Encode() = %v, want %v", f, want)
	}
	if !f.Verify() {
		t.Error("encoded frame does not verify")
	}
}

func TestEncode_Pressure(t *testing.T) {
	p := Profile{Model: "YB500", Probe: ProbePressure, SetPoint: 500, HardStart: 1, MinimumOutput: 48}

	f, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if f[2] != 1 {
		t.Errorf("probe flag = %d, want 1", f[2])
	}
	if f[3] != 0x01 || f[4] != 0xF4 {
		t.Errorf("set point bytes = %02X %02X, want 01 F4", f[3], f[4])
	}
	for i := 7; i < FrameSize; i++ {
		if f[i] != 0 {
			t.Errorf("reserved byte %d = %d, want 0", i, f[i])
		}
	}
	if !f.Verify() {
		t.Error("encoded frame does not verify")
	}
}

func TestEncode_AllValidProfilesVerify(t *testing.T) {
	for _, probe := range []ProbeKind{ProbeTemperature, ProbePressure} {
		lo, hi := TemperatureMin, TemperatureMax
		if probe == ProbePressure {
			lo, hi = PressureMin, PressureMax
		}
		for sp := lo; sp <= hi; sp += 7 {
			for hs := HardStartMin; hs <= HardStartMax; hs += 13 {
				p := Profile{Model: "YB000", Probe: probe, SetPoint: sp, HardStart: hs, MinimumOutput: MinOutputMax}
				f, err := Encode(p)
				if err != nil {
					t.Fatalf("Encode(%+v) error = %v", p, err)
				}
				if f[0] != Checksum(f[1:]) || !f.Verify() {
					t.Fatalf("Encode(%+v) produced bad checksum: %v", p, f)
				}
			}
		}
	}
}

func TestEncode_RejectsInvalidProfile(t *testing.T) {
	p := Profile{Model: "YB180", Probe: ProbeTemperature, SetPoint: 200, HardStart: 50, MinimumOutput: 17}

	_, err := Encode(p)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Encode() error = %v, want *ValidationError", err)
	}
	if verr.Field != "SetPoint" {
		t.Errorf("Field = %s, want SetPoint", verr.Field)
	}
}

func TestFrame_String(t *testing.T) {
	f := Frame{0x37, 201}
	want := "37 C9 00 00 00 00 00 00 00 00 00 00 00 00 00 00"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
