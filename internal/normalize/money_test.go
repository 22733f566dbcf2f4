package normalize

import "testing"

func TestParseAmount(t *testing.T) {
	cases := map[string]int64{
		"120000":     120000,
		"$ 120.000":  120000,
		"$1.234.567": 1234567,
		"1,234,567":  1234567,
		"1,234.50":   1235,
		"1.234,49":   1234,
		"99.5":       100,
		"12,3":       12,
		"CLP 25.000": 25000,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseAmount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseAmount_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "-500", "(500)", "n/a", "$", "$-500", "CLP -25.000", "$ (1.000)", "1.000-"} {
		if _, err := ParseAmount(in); err == nil {
			t.Errorf("ParseAmount(%q): expected error", in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:       "$0",
		999:     "$999",
		120000:  "$120,000",
		1234567: "$1,234,567",
		-25000:  "-$25,000",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
