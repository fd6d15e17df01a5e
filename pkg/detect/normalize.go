package detect

import (
	"strings"
)

// addressSuffixes maps common street-suffix spellings to their canonical
// short form so "10 First Street" and "10 First St" index identically.
var addressSuffixes = map[string]string{
	"street": "st", "st.": "st",
	"avenue": "ave", "ave.": "ave",
	"road": "rd", "rd.": "rd",
	"drive": "dr", "dr.": "dr",
	"lane": "ln", "ln.": "ln",
	"boulevard": "blvd", "blvd.": "blvd",
	"court": "ct", "ct.": "ct",
	"circle": "cir", "cir.": "cir",
	"highway": "hwy", "hwy.": "hwy",
}

// NormalizePhone strips everything but digits and keeps the last 10.
// Values with fewer than 7 digits are too ambiguous to link on and
// normalize to the empty string.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 7 {
		return ""
	}
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// NormalizeAddress canonicalizes a street/city/state triple into a single
// "street | city | state" key. Each component is lowercased, stripped of
// ASCII punctuation, whitespace-collapsed, and suffix-rewritten. Empty
// components are dropped; results of 5 characters or fewer are discarded.
func NormalizeAddress(street, city, state string) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{street, city, state} {
		text := normalizeAddressComponent(v)
		if text != "" {
			parts = append(parts, text)
		}
	}
	result := strings.Join(parts, " | ")
	if len(result) <= 5 {
		return ""
	}
	return result
}

func normalizeAddressComponent(v string) string {
	text := strings.ToLower(strings.TrimSpace(v))
	var b strings.Builder
	for _, r := range text {
		if isASCIIPunct(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	tokens := strings.Fields(b.String())
	for i, tok := range tokens {
		if short, ok := addressSuffixes[tok]; ok {
			tokens[i] = short
		}
	}
	return strings.Join(tokens, " ")
}

func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

// NormalizeOfficer uppercases a name, drops everything outside [A-Z ], and
// collapses whitespace. Results of 3 characters or fewer are discarded.
func NormalizeOfficer(name string) string {
	text := strings.ToUpper(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range text {
		if (r >= 'A' && r <= 'Z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	result := strings.Join(strings.Fields(b.String()), " ")
	if len(result) <= 3 {
		return ""
	}
	return result
}

// NormalizeVIN trims and uppercases. VINs shorter than 5 characters do not
// participate in linking and normalize to the empty string.
func NormalizeVIN(vin string) string {
	v := strings.ToUpper(strings.TrimSpace(vin))
	if len(v) < 5 {
		return ""
	}
	return v
}
