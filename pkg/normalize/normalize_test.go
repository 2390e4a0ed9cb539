package normalize

import "testing"

func TestInt(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{name: "plain", raw: "15", want: 15, wantOK: true},
		{name: "thousands separated", raw: "1,234", want: 1234, wantOK: true},
		{name: "millions", raw: "12,345,678", want: 12345678, wantOK: true},
		{name: "surrounding space", raw: "  42 ", want: 42, wantOK: true},
		{name: "no-break space grouping", raw: "1\u00a0234", want: 1234, wantOK: true},
		{name: "letters", raw: "abc", wantOK: false},
		{name: "trailing residue", raw: "12위", wantOK: false},
		{name: "empty", raw: "", wantOK: false},
		{name: "only separators", raw: ",,", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Int(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Int(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestWeeks(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{raw: "2주", want: 2, wantOK: true},
		{raw: "12 weeks", want: 12, wantOK: true},
		{raw: "3", want: 3, wantOK: true},
		{raw: "주", wantOK: false},
		{raw: "two weeks", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := Weeks(tt.raw)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("Weeks(%q) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
