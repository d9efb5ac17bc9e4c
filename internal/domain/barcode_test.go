package domain

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		scan string
		want Scan
	}{
		{"unit with W", "W123456S1234567890" + "10D" + "1234", Scan{ScanUnitSerial, "W123456S123456789010D1234"}},
		{"unit without W", "123456S123456789010D1234", Scan{ScanUnitSerial, "123456S123456789010D1234"}},
		{"model", "ABCDYB300ABCDEFGHIJKLM", Scan{ScanModelSelect, "YB300"}},
		{"model twelve tail", "ABCDYB300ABCDEFGHIJKL", Scan{ScanModelSelect, "YB300"}},
		{"model with W", "WAB12YB180ABCDEFGHIJ12", Scan{ScanModelSelect, "YB180"}},
		{"garbage", "garbage", Scan{Kind: ScanUnrecognized}},
		{"empty", "", Scan{Kind: ScanUnrecognized}},
		{"unit too short", "W12345S123456789010D1234", Scan{Kind: ScanUnrecognized}},
		{"model tail too long", "ABCDYB300ABCDEFGHIJKLMN", Scan{Kind: ScanUnrecognized}},
		{"lowercase model", "abcdYB300abcdefghijklm", Scan{Kind: ScanUnrecognized}},
		{"partial unit", "W123456S1234567890", Scan{Kind: ScanUnrecognized}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.scan); got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.scan, got, tt.want)
			}
		})
	}
}

func TestScanKind_String(t *testing.T) {
	tests := []struct {
		kind ScanKind
		want string
	}{
		{ScanUnrecognized, "Unrecognized"},
		{ScanUnitSerial, "UnitSerial"},
		{ScanModelSelect, "ModelSelect"},
		{ScanKind(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ScanKind(%d).String() = %s, want %s", tt.kind, got, tt.want)
		}
	}
}
