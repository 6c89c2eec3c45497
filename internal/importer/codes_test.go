package importer_test

import (
	"testing"

	"github.com/folioview/folio-backend/internal/importer"
)

// TestInferCategory tests category inference from bare exchange codes.
//
// WHY: Broker statements carry bare six-digit codes; which price field and
// which exchange suffix an asset gets downstream depends entirely on this
// classification.
func TestInferCategory(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"600036", "stock"},
		{"000001", "stock"},
		{"300750", "stock"},
		{"688981", "stock"},
		{"900901", "stock"},
		{"113050", "bond"},
		{"123456", "bond"},
		{"019547", "bond"},
		{"510300", "fund"},
		{"159915", "fund"},
		{"512010", "fund"},
		// Not a bare six-digit code.
		{"110011.OF", ""},
		{"60003", ""},
		{"CASH", ""},
		// Six digits outside every known range.
		{"999999", ""},
	}

	for _, test := range tests {
		t.Run(test.code, func(t *testing.T) {
			// Execute
			got := importer.InferCategory(test.code)

			// Assert
			if got != test.expected {
				t.Errorf("InferCategory(%q) = %q, expected %q", test.code, got, test.expected)
			}
		})
	}
}

// TestQualifyCode tests exchange suffix derivation.
func TestQualifyCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"600036", "600036.SH"},
		{"688981", "688981.SH"},
		{"510300", "510300.SH"},
		{"000001", "000001.SZ"},
		{"300750", "300750.SZ"},
		{"159915", "159915.SZ"},
		// Unrecognized ranges pass through untouched.
		{"999999", "999999"},
		{"730001", "730001"},
		{"CASH", "CASH"},
	}

	for _, test := range tests {
		t.Run(test.code, func(t *testing.T) {
			// Execute
			got := importer.QualifyCode(test.code)

			// Assert
			if got != test.expected {
				t.Errorf("QualifyCode(%q) = %q, expected %q", test.code, got, test.expected)
			}
		})
	}
}
