// Package importer converts broker statement exports into the
// tab-separated deal format the ledger import understands, and infers
// asset metadata from bare mainland security codes.
package importer

import "regexp"

var (
	bareCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

	// Mainland exchange code ranges. The stock ranges cover Shanghai A/B
	// shares and the STAR board plus Shenzhen A/B shares and the growth
	// boards; bonds cover treasuries and convertibles on both exchanges;
	// funds cover the exchange-traded ranges. Shanghai index codes
	// starting 000 collide with Shenzhen A shares and some Shanghai bond
	// ranges collide with Shenzhen funds, so inference is best-effort.
	stockPattern    = regexp.MustCompile(`^(?:60|900|68|00[0123]|[23]0)`)
	bondPattern     = regexp.MustCompile(`^(?:009|01[09]|020|10[01]|11[0123]|12)`)
	fundPattern     = regexp.MustCompile(`^(?:1[568]|5[012])`)
	shanghaiPattern = regexp.MustCompile(`^(?:60|900|68|5[012])`)
	shenzhenPattern = regexp.MustCompile(`^(?:00[0123]|[23]0|1[568])`)
)

// InferCategory guesses the asset category of a bare six-digit exchange
// code. Returns "" for codes that are not six digits or fall outside every
// known range.
func InferCategory(code string) string {
	if !bareCodePattern.MatchString(code) {
		return ""
	}
	switch {
	case stockPattern.MatchString(code):
		return "stock"
	case bondPattern.MatchString(code):
		return "bond"
	case fundPattern.MatchString(code):
		return "fund"
	}
	return ""
}

// ExchangeSuffix guesses the listing exchange of a bare six-digit code.
// Returns "SH", "SZ" or "" when the range is not recognized.
func ExchangeSuffix(code string) string {
	if InferCategory(code) == "" {
		return ""
	}
	switch {
	case shanghaiPattern.MatchString(code):
		return "SH"
	case shenzhenPattern.MatchString(code):
		return "SZ"
	}
	return ""
}

// QualifyCode appends the inferred exchange suffix to a bare code. Codes
// whose exchange cannot be determined come back unchanged.
func QualifyCode(code string) string {
	suffix := ExchangeSuffix(code)
	if suffix == "" {
		return code
	}
	return code + "." + suffix
}
