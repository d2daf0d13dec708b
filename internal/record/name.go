package record

import "strings"

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
}

// SplitName splits a full display name into given and family parts. The last
// whitespace-separated token becomes the family name, keeping a trailing
// suffix (Jr, III, PhD) with it.
//
// Multi-part surnames (van der Waals) end up partly in the given name.
func SplitName(name string) (given, family string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}

	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		family = parts[len(parts)-2] + " " + parts[len(parts)-1]
		given = strings.Join(parts[:len(parts)-2], " ")
		return given, family
	}

	family = parts[len(parts)-1]
	given = strings.Join(parts[:len(parts)-1], " ")
	return given, family
}

// FormatInverted formats a name as "Family, Given". A missing given name
// yields just the family name.
func FormatInverted(given, family string) string {
	given = strings.TrimSpace(given)
	family = strings.TrimSpace(family)
	if given == "" {
		return family
	}
	return family + ", " + given
}

// YearPrefix returns the leading year of an ISO-like date ("2021-03-04" -> "2021").
// It returns "" when the prefix is not numeric.
func YearPrefix(date string) string {
	date = strings.TrimSpace(date)
	year, _, _ := strings.Cut(date, "-")
	if year == "" {
		return ""
	}
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}
