package record

import "testing"

func TestSplitName(t *testing.T) {
	tests := []struct {
		name       string
		wantGiven  string
		wantFamily string
	}{
		{"Pola Lehmann", "Pola", "Lehmann"},
		{"Chung-hong Chan", "Chung-hong", "Chan"},
		{"Jane Q. Public", "Jane Q.", "Public"},
		{"Martin Luther King Jr.", "Martin Luther", "King Jr."},
		{"Madonna", "", "Madonna"},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			given, family := SplitName(tt.name)
			if given != tt.wantGiven || family != tt.wantFamily {
				t.Errorf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.name, given, family, tt.wantGiven, tt.wantFamily)
			}
		})
	}
}

func TestFormatInverted(t *testing.T) {
	if got := FormatInverted("Werner", "Krause"); got != "Krause, Werner" {
		t.Errorf("FormatInverted() = %q", got)
	}
	if got := FormatInverted("", "Madonna"); got != "Madonna" {
		t.Errorf("FormatInverted() without given = %q", got)
	}
}

func TestYearPrefix(t *testing.T) {
	tests := map[string]string{
		"2021-03-04T10:00:00Z": "2021",
		"2011-03-14":           "2011",
		"1999":                 "1999",
		"":                     "",
		"unknown-date":         "",
	}
	for in, want := range tests {
		if got := YearPrefix(in); got != want {
			t.Errorf("YearPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
