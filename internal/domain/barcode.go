package domain

import "regexp"

// Product labels print 12 trailing characters; some label runs carry 13.
var (
	unitBarcode  = regexp.MustCompile(`^W?([0-9]{6})S([0-9]{10})10D([0-9]{4})$`)
	modelBarcode = regexp.MustCompile(`^W?([A-Z0-9]{4})(YB[0-9]{3})([A-Z0-9]{12,13})$`)
)

// ScanKind tells which grammar a terminated scan matched.
type ScanKind int

const (
	ScanUnrecognized ScanKind = iota
	ScanUnitSerial
	ScanModelSelect
)

// String returns a human-readable representation of the scan kind.
func (k ScanKind) String() string {
	switch k {
	case ScanUnrecognized:
		return "Unrecognized"
	case ScanUnitSerial:
		return "UnitSerial"
	case ScanModelSelect:
		return "ModelSelect"
	default:
		return "Unknown"
	}
}

// Scan is a classified barcode.
type Scan struct {
	Kind ScanKind

	// Value is the whole scan for unit serials and the catalog key
	// (YB plus three digits) for model barcodes.
	Value string
}

// Classify matches a fully accumulated scan against the unit-serial and
// product-model grammars. The grammars are disjoint.
func Classify(scan string) Scan {
	if unitBarcode.MatchString(scan) {
		return Scan{Kind: ScanUnitSerial, Value: scan}
	}
	if m := modelBarcode.FindStringSubmatch(scan); m != nil {
		return Scan{Kind: ScanModelSelect, Value: m[2]}
	}
	return Scan{Kind: ScanUnrecognized}
}
